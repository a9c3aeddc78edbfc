// cpu_chip8.go - CHIP-8 fetch/decode/execute core

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"math/rand"
	"time"
)

// CPUState is the read-only snapshot exposed for debugging and tests. It
// is the only state a harness should depend on.
type CPUState struct {
	PC               uint16
	SP               byte
	I                uint16
	V                [NUM_REGISTERS]byte
	Delay            byte
	Sound            byte
	Stack            []uint16
	InstructionCount uint64
}

// keyWaitPhase tracks the FX0A sub-state. The instruction completes on a
// full press-then-release edge, not on the press alone.
type keyWaitPhase int

const (
	keyWaitNone keyWaitPhase = iota
	keyWaitPress
	keyWaitRelease
)

// CPU owns the memory, register file, call stack and timers, and holds
// optional references to the display, audio and input collaborators. It is
// single-threaded: Cycle always returns after at most one instruction or
// one key-wait poll and never blocks the host.
type CPU struct {
	mem    *Memory
	regs   *Registers
	stack  *Stack
	timers *Timers

	display Display
	audio   AudioSink
	input   KeySource

	rng *rand.Rand

	instructionCount uint64

	waitPhase    keyWaitPhase
	waitRegister uint8
	waitKey      byte
}

func NewCPU() *CPU {
	return &CPU{
		mem:    NewMemory(),
		regs:   NewRegisters(),
		stack:  NewStack(),
		timers: NewTimers(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetDisplay attaches the display collaborator. Absent display: draws do
// nothing and the collision flag is cleared.
func (c *CPU) SetDisplay(d Display) {
	c.display = d
}

// SetAudio attaches the audio sink driven by the sound timer edge.
func (c *CPU) SetAudio(a AudioSink) {
	c.audio = a
}

// SetInput attaches the key source polled by EX9E/EXA1/FX0A.
func (c *CPU) SetInput(in KeySource) {
	c.input = in
}

// SetRandSource replaces the byte source behind CXNN, for deterministic
// tests.
func (c *CPU) SetRandSource(src rand.Source) {
	c.rng = rand.New(src)
}

// Memory exposes the address space to loaders and tooling.
func (c *CPU) Memory() *Memory {
	return c.mem
}

// Timers exposes the timer pair, mainly for deterministic test driving.
func (c *CPU) Timers() *Timers {
	return c.timers
}

// IsWaitingForKey reports whether the CPU sits in the FX0A sub-state.
func (c *CPU) IsWaitingForKey() bool {
	return c.waitPhase != keyWaitNone
}

// Reset returns the machine to power-on state. The loaded ROM is wiped.
func (c *CPU) Reset() {
	c.regs.Reset()
	c.mem.Clear()
	c.stack.Reset()
	c.timers.Reset()
	c.instructionCount = 0
	c.waitPhase = keyWaitNone
	c.waitRegister = 0
	c.waitKey = 0
}

// LoadROM places a program image at the standard start address and points
// PC at it.
func (c *CPU) LoadROM(rom []byte) error {
	return c.LoadROMAt(rom, PROGRAM_START)
}

// LoadROMAt places a program image at an alternate start address, as used
// by ETI 660 loaders.
func (c *CPU) LoadROMAt(rom []byte, start uint16) error {
	if err := c.mem.Load(rom, start); err != nil {
		return err
	}
	c.regs.SetPC(start)
	return nil
}

// State captures the architectural registers, the stack contents and the
// executed-instruction counter.
func (c *CPU) State() CPUState {
	return CPUState{
		PC:               c.regs.GetPC(),
		SP:               byte(c.stack.Depth()),
		I:                c.regs.GetI(),
		V:                c.regs.AllV(),
		Delay:            c.timers.GetDelay(),
		Sound:            c.timers.GetSound(),
		Stack:            c.stack.Contents(),
		InstructionCount: c.instructionCount,
	}
}

// ShouldPlaySound mirrors the timer predicate for frontends.
func (c *CPU) ShouldPlaySound() bool {
	return c.timers.ShouldPlaySound()
}

// Cycle runs one step of the machine: advance timers, drive the audio
// edge, then either resolve the key-wait sub-state or fetch and execute
// one instruction. PC is advanced before dispatch so control-transfer
// opcodes are free to overwrite it.
func (c *CPU) Cycle() error {
	c.timers.Update()

	if c.audio != nil {
		if c.timers.ShouldPlaySound() {
			c.audio.Play()
		} else {
			c.audio.Stop()
		}
	}

	if c.waitPhase != keyWaitNone {
		c.pollKeyWait()
		return nil
	}

	pc := c.regs.GetPC()
	instruction, err := c.mem.ReadWord(pc)
	if err != nil {
		return err
	}
	c.regs.IncrementPC()

	if err := c.execute(instruction); err != nil {
		return err
	}

	c.instructionCount++
	return nil
}

// pollKeyWait advances the FX0A state machine. No instruction is fetched
// while it is active and PC stays put.
func (c *CPU) pollKeyWait() {
	if c.input == nil {
		return
	}
	switch c.waitPhase {
	case keyWaitPress:
		if key, ok := c.input.FirstPressedKey(); ok {
			c.waitKey = key
			c.waitPhase = keyWaitRelease
		}
	case keyWaitRelease:
		if !c.input.IsKeyPressed(c.waitKey) {
			// The register write happens on the release edge only.
			c.regs.SetV(c.waitRegister, c.waitKey)
			c.waitPhase = keyWaitNone
		}
	}
}

// execute decodes one instruction word into nibbles and dispatches it.
func (c *CPU) execute(instruction uint16) error {
	n1 := uint8(instruction >> 12)
	x := uint8(instruction >> 8 & 0xF)
	y := uint8(instruction >> 4 & 0xF)
	n := uint8(instruction & 0xF)
	nn := byte(instruction)
	nnn := instruction & 0x0FFF

	switch n1 {
	case 0x0:
		switch instruction {
		case 0x00E0:
			if c.display != nil {
				c.display.Clear()
			}
			return nil
		case 0x00EE:
			addr, err := c.stack.Pop()
			if err != nil {
				return err
			}
			c.regs.SetSP(byte(c.stack.Depth()))
			c.regs.SetPC(addr)
			return nil
		default:
			// 0NNN legacy system call, ignored.
			return nil
		}

	case 0x1:
		c.regs.SetPC(nnn)
		return nil

	case 0x2:
		if err := c.stack.Push(c.regs.GetPC()); err != nil {
			return err
		}
		c.regs.SetSP(byte(c.stack.Depth()))
		c.regs.SetPC(nnn)
		return nil

	case 0x3:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		if vx == nn {
			c.regs.SkipNext()
		}
		return nil

	case 0x4:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		if vx != nn {
			c.regs.SkipNext()
		}
		return nil

	case 0x5:
		if n != 0 {
			return &UnknownInstructionError{Opcode: instruction}
		}
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		vy, err := c.regs.GetV(y)
		if err != nil {
			return err
		}
		if vx == vy {
			c.regs.SkipNext()
		}
		return nil

	case 0x6:
		return c.regs.SetV(x, nn)

	case 0x7:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		return c.regs.SetV(x, vx+nn)

	case 0x8:
		return c.executeALU(instruction, x, y, n)

	case 0x9:
		if n != 0 {
			return &UnknownInstructionError{Opcode: instruction}
		}
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		vy, err := c.regs.GetV(y)
		if err != nil {
			return err
		}
		if vx != vy {
			c.regs.SkipNext()
		}
		return nil

	case 0xA:
		c.regs.SetI(nnn)
		return nil

	case 0xB:
		v0, err := c.regs.GetV(0)
		if err != nil {
			return err
		}
		c.regs.SetPC(nnn + uint16(v0))
		return nil

	case 0xC:
		return c.regs.SetV(x, byte(c.rng.Intn(256))&nn)

	case 0xD:
		return c.drawSprite(x, y, n)

	case 0xE:
		return c.executeKeySkip(instruction, x, nn)

	case 0xF:
		return c.executeMisc(instruction, x, nn)
	}

	return &UnknownInstructionError{Opcode: instruction}
}

// executeALU dispatches the 8XYn register-to-register group onto the fused
// register file operations.
func (c *CPU) executeALU(instruction uint16, x, y, n uint8) error {
	switch n {
	case 0x0:
		vy, err := c.regs.GetV(y)
		if err != nil {
			return err
		}
		return c.regs.SetV(x, vy)
	case 0x1:
		return c.bitwise(x, y, func(a, b byte) byte { return a | b })
	case 0x2:
		return c.bitwise(x, y, func(a, b byte) byte { return a & b })
	case 0x3:
		return c.bitwise(x, y, func(a, b byte) byte { return a ^ b })
	case 0x4:
		return c.regs.AddWithCarry(x, y)
	case 0x5:
		return c.regs.SubWithBorrow(x, y)
	case 0x6:
		return c.regs.ShiftRight(x)
	case 0x7:
		return c.regs.SubReverseWithBorrow(x, y)
	case 0xE:
		return c.regs.ShiftLeft(x)
	}
	return &UnknownInstructionError{Opcode: instruction}
}

func (c *CPU) bitwise(x, y uint8, op func(a, b byte) byte) error {
	vx, err := c.regs.GetV(x)
	if err != nil {
		return err
	}
	vy, err := c.regs.GetV(y)
	if err != nil {
		return err
	}
	return c.regs.SetV(x, op(vx, vy))
}

// drawSprite implements DXYN. With no display attached nothing is drawn
// and the collision flag is cleared; sprite bytes are still bounds-checked
// against memory when a display consumes them.
func (c *CPU) drawSprite(x, y, n uint8) error {
	vx, err := c.regs.GetV(x)
	if err != nil {
		return err
	}
	vy, err := c.regs.GetV(y)
	if err != nil {
		return err
	}

	// Sprite rows go through ReadByte so the global boundary policy
	// applies: bounded mode fails past the end, wraparound mode reads
	// modulo the memory size. The range is checked even when no display
	// consumes it.
	i := c.regs.GetI()
	sprite := make([]byte, int(n))
	for row := range sprite {
		b, err := c.mem.ReadByte(i + uint16(row))
		if err != nil {
			return err
		}
		sprite[row] = b
	}

	collision := false
	if c.display != nil {
		var err error
		collision, err = c.display.DrawSprite(vx, vy, sprite)
		if err != nil {
			return err
		}
	}

	if collision {
		c.regs.SetFlag(1)
	} else {
		c.regs.SetFlag(0)
	}
	return nil
}

// executeKeySkip implements EX9E and EXA1. An absent input source reads as
// "no key pressed", so EXA1 still skips.
func (c *CPU) executeKeySkip(instruction uint16, x uint8, nn byte) error {
	vx, err := c.regs.GetV(x)
	if err != nil {
		return err
	}
	pressed := false
	if c.input != nil && vx <= 0xF {
		pressed = c.input.IsKeyPressed(vx)
	}
	switch nn {
	case 0x9E:
		if pressed {
			c.regs.SkipNext()
		}
		return nil
	case 0xA1:
		if !pressed {
			c.regs.SkipNext()
		}
		return nil
	}
	return &UnknownInstructionError{Opcode: instruction}
}

// executeMisc implements the FXnn group.
func (c *CPU) executeMisc(instruction uint16, x uint8, nn byte) error {
	switch nn {
	case 0x07:
		return c.regs.SetV(x, c.timers.GetDelay())

	case 0x0A:
		c.waitPhase = keyWaitPress
		c.waitRegister = x
		return nil

	case 0x15:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		c.timers.SetDelay(vx)
		return nil

	case 0x18:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		c.timers.SetSound(vx)
		return nil

	case 0x1E:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		sum := c.regs.GetI() + uint16(vx)
		// Carry out of the 12-bit address space is a flag, not an error.
		if sum > 0x0FFF {
			c.regs.SetFlag(1)
		} else {
			c.regs.SetFlag(0)
		}
		c.regs.SetI(sum)
		return nil

	case 0x29:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		addr, err := c.mem.FontAddress(vx & 0xF)
		if err != nil {
			return err
		}
		c.regs.SetI(addr)
		return nil

	case 0x33:
		vx, err := c.regs.GetV(x)
		if err != nil {
			return err
		}
		i := c.regs.GetI()
		if err := c.mem.WriteByte(i, vx/100); err != nil {
			return err
		}
		if err := c.mem.WriteByte(i+1, vx/10%10); err != nil {
			return err
		}
		return c.mem.WriteByte(i+2, vx%10)

	case 0x55:
		values, err := c.regs.GetRange(0, int(x)+1)
		if err != nil {
			return err
		}
		i := c.regs.GetI()
		for offset, value := range values {
			if err := c.mem.WriteByte(i+uint16(offset), value); err != nil {
				return err
			}
		}
		// I is left unchanged, matching the original interpreters.
		return nil

	case 0x65:
		i := c.regs.GetI()
		values := make([]byte, int(x)+1)
		for offset := range values {
			b, err := c.mem.ReadByte(i + uint16(offset))
			if err != nil {
				return err
			}
			values[offset] = b
		}
		// I is left unchanged here too.
		return c.regs.SetRange(0, values)
	}
	return &UnknownInstructionError{Opcode: instruction}
}
