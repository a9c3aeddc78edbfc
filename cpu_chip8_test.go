// cpu_chip8_test.go - Instruction semantics and machine cycle tests

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestCPU(t *testing.T, program []byte) *CPU {
	t.Helper()
	cpu := NewCPU()
	cpu.SetDisplay(NewDisplayPlane())
	if err := cpu.LoadROM(program); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	return cpu
}

func runCycles(t *testing.T, cpu *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := cpu.Cycle(); err != nil {
			t.Fatalf("Cycle %d failed: %v", i, err)
		}
	}
}

// TestThreeInstructionProgram runs 6105 7110 A456 and checks the full
// architectural state afterwards.
func TestThreeInstructionProgram(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x61, 0x05, 0x71, 0x10, 0xA4, 0x56})

	runCycles(t, cpu, 3)

	state := cpu.State()
	if state.V[1] != 0x15 {
		t.Fatalf("V1 = 0x%02X, expected 0x15", state.V[1])
	}
	if state.I != 0x456 {
		t.Fatalf("I = 0x%04X, expected 0x456", state.I)
	}
	if state.PC != 0x206 {
		t.Fatalf("PC = 0x%04X, expected 0x206", state.PC)
	}
	if state.InstructionCount != 3 {
		t.Fatalf("InstructionCount = %d, expected 3", state.InstructionCount)
	}
}

// TestJumpOverwritesAdvancedPC verifies 1NNN lands exactly on the
// target because PC advances before dispatch.
func TestJumpOverwritesAdvancedPC(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x12, 0x34})

	runCycles(t, cpu, 1)

	if pc := cpu.State().PC; pc != 0x234 {
		t.Fatalf("PC = 0x%04X, expected 0x234", pc)
	}
}

// TestCallAndReturn verifies 2NNN pushes the already-advanced PC and
// 00EE restores it.
func TestCallAndReturn(t *testing.T) {
	// 0x200: CALL 0x206
	// 0x202: LD V0, 0xAA (the return target)
	// 0x206: RET
	cpu := newTestCPU(t, []byte{
		0x22, 0x06,
		0x60, 0xAA,
		0x00, 0x00,
		0x00, 0xEE,
	})

	runCycles(t, cpu, 1)
	state := cpu.State()
	if state.PC != 0x206 {
		t.Fatalf("PC after CALL = 0x%04X, expected 0x206", state.PC)
	}
	if state.SP != 1 || len(state.Stack) != 1 || state.Stack[0] != 0x202 {
		t.Fatalf("Stack after CALL = %v (SP=%d), expected [0x202]", state.Stack, state.SP)
	}

	runCycles(t, cpu, 2) // RET, then the LD at the return address
	state = cpu.State()
	if state.SP != 0 {
		t.Fatalf("SP after RET = %d, expected 0", state.SP)
	}
	if state.V[0] != 0xAA {
		t.Fatalf("V0 = 0x%02X, expected 0xAA (return target not executed)", state.V[0])
	}
}

// TestReturnOnEmptyStack verifies a bare 00EE surfaces the underflow.
func TestReturnOnEmptyStack(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x00, 0xEE})

	err := cpu.Cycle()
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("RET on empty stack error %v, expected ErrStackUnderflow", err)
	}
}

// TestCallDepthLimit verifies the 17th nested call overflows.
func TestCallDepthLimit(t *testing.T) {
	// A subroutine that calls itself: infinite recursion.
	cpu := newTestCPU(t, []byte{0x22, 0x00})

	var err error
	for i := 0; i < STACK_SIZE; i++ {
		if err = cpu.Cycle(); err != nil {
			t.Fatalf("Call %d failed early: %v", i, err)
		}
	}
	err = cpu.Cycle()
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("17th call error %v, expected ErrStackOverflow", err)
	}
}

// TestConditionalSkips verifies 3XNN, 4XNN, 5XY0 and 9XY0 advance PC by
// an extra instruction exactly when their condition holds.
func TestConditionalSkips(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		wantPC  uint16
	}{
		{"3XNN taken", []byte{0x30, 0x00}, 0x204},
		{"3XNN not taken", []byte{0x30, 0x01}, 0x202},
		{"4XNN taken", []byte{0x40, 0x01}, 0x204},
		{"4XNN not taken", []byte{0x40, 0x00}, 0x202},
		{"5XY0 taken", []byte{0x50, 0x10}, 0x204},
		{"9XY0 not taken", []byte{0x90, 0x10}, 0x202},
	}
	for _, tt := range tests {
		cpu := newTestCPU(t, tt.program)
		runCycles(t, cpu, 1)
		if pc := cpu.State().PC; pc != tt.wantPC {
			t.Fatalf("%s: PC = 0x%04X, expected 0x%04X", tt.name, pc, tt.wantPC)
		}
	}
}

// TestJumpWithOffset verifies BNNN jumps to NNN+V0.
func TestJumpWithOffset(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x60, 0x10, 0xB3, 0x00})

	runCycles(t, cpu, 2)

	if pc := cpu.State().PC; pc != 0x310 {
		t.Fatalf("PC = 0x%04X, expected 0x310", pc)
	}
}

// TestRandomMasked verifies CXNN applies the mask: with NN=0 the result
// is always zero regardless of the random byte.
func TestRandomMasked(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x63, 0x00})
	cpu.SetRandSource(rand.NewSource(1))
	// Overwrite the loaded word with CXNN.
	cpu.Memory().WriteWord(PROGRAM_START, 0xC3FF)
	cpu.Memory().WriteWord(PROGRAM_START+2, 0xC400)

	runCycles(t, cpu, 2)

	state := cpu.State()
	if state.V[4] != 0 {
		t.Fatalf("V4 = 0x%02X, expected 0 (mask 0x00)", state.V[4])
	}
}

// TestDrawSetsCollisionFlag verifies DXYN drives VF from the plane's
// collision result.
func TestDrawSetsCollisionFlag(t *testing.T) {
	// Point I at the font glyph for 0 and draw it twice at the origin.
	cpu := newTestCPU(t, []byte{
		0x60, 0x00, // V0 = 0
		0xF0, 0x29, // I = font(V0)
		0xD0, 0x05, // draw 5 rows
		0xD0, 0x05, // draw again: full overlap
	})

	runCycles(t, cpu, 3)
	if flag := cpu.State().V[0xF]; flag != 0 {
		t.Fatalf("VF after first draw = %d, expected 0", flag)
	}

	runCycles(t, cpu, 1)
	if flag := cpu.State().V[0xF]; flag != 1 {
		t.Fatalf("VF after overlapping draw = %d, expected 1", flag)
	}
}

// TestDrawSpriteReadBounded verifies a sprite read past the end of
// memory fails in bounded mode and wraps in wraparound mode.
func TestDrawSpriteReadBounded(t *testing.T) {
	cpu := newTestCPU(t, []byte{0xD0, 0x02})
	cpuRegsSetI(cpu, 0xFFF)

	err := cpu.Cycle()
	var memErr *MemoryError
	if !errors.As(err, &memErr) {
		t.Fatalf("Bounded sprite read error %v, expected MemoryError", err)
	}

	cpu = newTestCPU(t, []byte{0xD0, 0x02})
	cpu.Memory().SetWraparound(true)
	cpuRegsSetI(cpu, 0xFFF)
	if err := cpu.Cycle(); err != nil {
		t.Fatalf("Wraparound sprite read failed: %v", err)
	}
}

// cpuRegsSetI points I somewhere without executing an ANNN.
func cpuRegsSetI(cpu *CPU, addr uint16) {
	cpu.regs.SetI(addr)
}

// TestKeyWaitPressThenRelease walks the FX0A two-phase state machine:
// the register is written on the release edge and PC never moves while
// waiting.
func TestKeyWaitPressThenRelease(t *testing.T) {
	keypad := NewKeypad()
	cpu := newTestCPU(t, []byte{0xF5, 0x0A})
	cpu.SetInput(keypad)

	// Cycle 1: FX0A executes and arms the wait.
	runCycles(t, cpu, 1)
	if !cpu.IsWaitingForKey() {
		t.Fatal("CPU not waiting after FX0A")
	}
	pcDuringWait := cpu.State().PC

	// Cycle 2: nothing pressed, still waiting.
	runCycles(t, cpu, 1)
	if !cpu.IsWaitingForKey() {
		t.Fatal("Wait resolved with no key activity")
	}

	// Cycle 3: key 7 pressed; the press alone must not complete it.
	keypad.Press(0x7)
	runCycles(t, cpu, 1)
	if !cpu.IsWaitingForKey() {
		t.Fatal("Wait resolved on press, expected completion on release")
	}
	if v := cpu.State().V[5]; v != 0 {
		t.Fatalf("V5 written before release: 0x%02X", v)
	}

	// Cycle 4: key released, V5 gets the key.
	keypad.Release(0x7)
	runCycles(t, cpu, 1)
	if cpu.IsWaitingForKey() {
		t.Fatal("Still waiting after release")
	}
	state := cpu.State()
	if state.V[5] != 0x7 {
		t.Fatalf("V5 = 0x%02X, expected 0x7", state.V[5])
	}
	if state.PC != pcDuringWait {
		t.Fatalf("PC moved during wait: 0x%04X vs 0x%04X", state.PC, pcDuringWait)
	}
}

// TestKeySkips verifies EX9E skips when the key in Vx is down and EXA1
// when it is up, including the no-input-source case.
func TestKeySkips(t *testing.T) {
	keypad := NewKeypad()
	keypad.Press(0xB)

	cpu := newTestCPU(t, []byte{0x60, 0x0B, 0xE0, 0x9E})
	cpu.SetInput(keypad)
	runCycles(t, cpu, 2)
	if pc := cpu.State().PC; pc != 0x206 {
		t.Fatalf("EX9E with key down: PC = 0x%04X, expected 0x206", pc)
	}

	cpu = newTestCPU(t, []byte{0x60, 0x0B, 0xE0, 0xA1})
	cpu.SetInput(keypad)
	runCycles(t, cpu, 2)
	if pc := cpu.State().PC; pc != 0x204 {
		t.Fatalf("EXA1 with key down: PC = 0x%04X, expected 0x204", pc)
	}

	// No input source attached reads as no key pressed.
	cpu = newTestCPU(t, []byte{0xE0, 0xA1})
	runCycles(t, cpu, 1)
	if pc := cpu.State().PC; pc != 0x204 {
		t.Fatalf("EXA1 with no input: PC = 0x%04X, expected 0x204", pc)
	}
}

// TestBCD verifies FX33 writes hundreds, tens and ones at I, I+1, I+2.
func TestBCD(t *testing.T) {
	cpu := newTestCPU(t, []byte{
		0x60, 0xFE, // V0 = 254
		0xA3, 0x00, // I = 0x300
		0xF0, 0x33,
	})

	runCycles(t, cpu, 3)

	for offset, want := range []byte{2, 5, 4} {
		got, _ := cpu.Memory().ReadByte(0x300 + uint16(offset))
		if got != want {
			t.Fatalf("BCD digit at I+%d = %d, expected %d", offset, got, want)
		}
	}
}

// TestBlockStoreLoadLeavesI verifies FX55 and FX65 transfer V0..Vx and
// do not advance I.
func TestBlockStoreLoadLeavesI(t *testing.T) {
	cpu := newTestCPU(t, []byte{
		0x60, 0x11,
		0x61, 0x22,
		0x62, 0x33,
		0xA3, 0x00,
		0xF2, 0x55, // store V0..V2 at 0x300
		0x63, 0x00, // scratch: prove reload overwrites
		0xF2, 0x65, // load V0..V2 back
	})

	runCycles(t, cpu, 5)
	state := cpu.State()
	if state.I != 0x300 {
		t.Fatalf("I after FX55 = 0x%04X, expected 0x300", state.I)
	}
	for offset, want := range []byte{0x11, 0x22, 0x33} {
		got, _ := cpu.Memory().ReadByte(0x300 + uint16(offset))
		if got != want {
			t.Fatalf("Stored byte %d = 0x%02X, expected 0x%02X", offset, got, want)
		}
	}

	runCycles(t, cpu, 2)
	state = cpu.State()
	if state.I != 0x300 {
		t.Fatalf("I after FX65 = 0x%04X, expected 0x300", state.I)
	}
	if state.V[0] != 0x11 || state.V[1] != 0x22 || state.V[2] != 0x33 {
		t.Fatalf("Reloaded V0..V2 = %02X %02X %02X, expected 11 22 33", state.V[0], state.V[1], state.V[2])
	}
}

// TestAddToIndexCarryFlag verifies FX1E sets VF on carry past the
// 12-bit address space instead of failing.
func TestAddToIndexCarryFlag(t *testing.T) {
	cpu := newTestCPU(t, []byte{
		0x60, 0x10,
		0xAF, 0xFF, // I = 0xFFF
		0xF0, 0x1E, // I += 0x10 -> 0x100F, carry
		0xF0, 0x1E, // I += 0x10, still past, flag stays 1
	})

	runCycles(t, cpu, 3)
	state := cpu.State()
	if state.I != 0x100F {
		t.Fatalf("I = 0x%04X, expected 0x100F", state.I)
	}
	if state.V[0xF] != 1 {
		t.Fatalf("VF = %d, expected 1 on carry past 0xFFF", state.V[0xF])
	}

	// Below the boundary the flag clears.
	cpu = newTestCPU(t, []byte{0x60, 0x01, 0xA0, 0x10, 0xF0, 0x1E})
	runCycles(t, cpu, 3)
	state = cpu.State()
	if state.I != 0x011 || state.V[0xF] != 0 {
		t.Fatalf("I=0x%04X VF=%d, expected I=0x011 VF=0", state.I, state.V[0xF])
	}
}

// TestDelayTimerRoundTrip verifies FX15 and FX07 move a value through
// the delay timer.
func TestDelayTimerRoundTrip(t *testing.T) {
	cpu := newTestCPU(t, []byte{
		0x60, 0x3C, // V0 = 60
		0xF0, 0x15, // DT = V0
		0xF1, 0x07, // V1 = DT
	})

	runCycles(t, cpu, 3)

	// A few fast cycles cannot burn a full 60Hz period, so the value
	// survives the round trip.
	if v := cpu.State().V[1]; v < 59 {
		t.Fatalf("V1 = %d, expected the delay value (>= 59)", v)
	}
}

// TestSoundTimerDrivesAudio verifies the sound timer edge calls Play
// and Stop on the attached sink.
func TestSoundTimerDrivesAudio(t *testing.T) {
	buzzer := NewBuzzer(ClassicBuzzerConfig())
	cpu := newTestCPU(t, []byte{
		0x60, 0x05,
		0xF0, 0x18, // ST = 5
		0x12, 0x04, // spin
	})
	cpu.SetAudio(buzzer)

	runCycles(t, cpu, 3)
	if !buzzer.IsPlaying() {
		t.Fatal("Buzzer silent with sound timer set")
	}

	cpu.Timers().Tick(5)
	runCycles(t, cpu, 1)
	if buzzer.IsPlaying() {
		t.Fatal("Buzzer still playing after sound timer expired")
	}
}

// TestUnknownInstructions verifies malformed encodings fail with the
// offending opcode preserved.
func TestUnknownInstructions(t *testing.T) {
	for _, opcode := range []uint16{0x5AB1, 0x8AB8, 0x9AB3, 0xE0FF, 0xF0FF} {
		cpu := newTestCPU(t, []byte{byte(opcode >> 8), byte(opcode)})
		err := cpu.Cycle()
		var unkErr *UnknownInstructionError
		if !errors.As(err, &unkErr) {
			t.Fatalf("Opcode 0x%04X error %v, expected UnknownInstructionError", opcode, err)
		}
		if unkErr.Opcode != opcode {
			t.Fatalf("Error carries opcode 0x%04X, expected 0x%04X", unkErr.Opcode, opcode)
		}
	}
}

// TestLegacySysIsNoop verifies 0NNN falls through without error.
func TestLegacySysIsNoop(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x01, 0x23})

	runCycles(t, cpu, 1)

	if pc := cpu.State().PC; pc != 0x202 {
		t.Fatalf("PC = 0x%04X, expected 0x202", pc)
	}
}

// TestFetchPastEndOfMemory verifies the fetch itself honors the
// boundary policy.
func TestFetchPastEndOfMemory(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x00, 0x00})
	cpu.regs.SetPC(MEMORY_SIZE)

	err := cpu.Cycle()
	var memErr *MemoryError
	if !errors.As(err, &memErr) {
		t.Fatalf("Fetch past end error %v, expected MemoryError", err)
	}
}

// TestCPUReset verifies Reset restores power-on state including the
// wait sub-state and the instruction counter.
func TestCPUReset(t *testing.T) {
	cpu := newTestCPU(t, []byte{0x61, 0x05, 0xF5, 0x0A})
	cpu.SetInput(NewKeypad())
	runCycles(t, cpu, 2)
	if !cpu.IsWaitingForKey() {
		t.Fatal("Setup failed: not waiting")
	}

	cpu.Reset()

	state := cpu.State()
	if state.PC != PROGRAM_START || state.InstructionCount != 0 {
		t.Fatalf("After reset PC=0x%04X count=%d, expected 0x%04X and 0", state.PC, state.InstructionCount, PROGRAM_START)
	}
	if cpu.IsWaitingForKey() {
		t.Fatal("Still waiting after reset")
	}
	if state.V[1] != 0 {
		t.Fatalf("V1 after reset = 0x%02X, expected 0", state.V[1])
	}
	// The program was wiped with memory.
	if b, _ := cpu.Memory().ReadByte(PROGRAM_START); b != 0 {
		t.Fatalf("Program survived reset: 0x%02X", b)
	}
}

// TestETILoadAddress verifies LoadROMAt places the image and PC at the
// alternate start.
func TestETILoadAddress(t *testing.T) {
	cpu := NewCPU()
	cpu.SetDisplay(NewDisplayPlane())
	if err := cpu.LoadROMAt([]byte{0x61, 0x42}, ETI_START); err != nil {
		t.Fatalf("LoadROMAt failed: %v", err)
	}

	if pc := cpu.State().PC; pc != ETI_START {
		t.Fatalf("PC = 0x%04X, expected 0x%04X", pc, ETI_START)
	}
	if err := cpu.Cycle(); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}
	if v := cpu.State().V[1]; v != 0x42 {
		t.Fatalf("V1 = 0x%02X, expected 0x42", v)
	}
}

// TestDrawWithoutDisplay verifies DXYN with no display attached clears
// VF and succeeds.
func TestDrawWithoutDisplay(t *testing.T) {
	cpu := NewCPU()
	if err := cpu.LoadROM([]byte{0x6F, 0x01, 0xA2, 0x00, 0xD0, 0x01}); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}

	runCycles(t, cpu, 3)

	if flag := cpu.State().V[0xF]; flag != 0 {
		t.Fatalf("VF = %d, expected 0 with no display", flag)
	}
}

// BenchmarkCycle measures raw dispatch throughput on a tight loop.
func BenchmarkCycle(b *testing.B) {
	cpu := NewCPU()
	cpu.SetDisplay(NewDisplayPlane())
	// 0x200: ADD V0, 1 / JP 0x200
	cpu.LoadROM([]byte{0x70, 0x01, 0x12, 0x00})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := cpu.Cycle(); err != nil {
			b.Fatal(err)
		}
	}
}
