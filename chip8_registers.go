// chip8_registers.go - Register file with the CHIP-8 flag conventions

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

const (
	NUM_REGISTERS = 16
	FLAG_REGISTER = 0xF
)

// Registers holds the sixteen 8-bit V registers, the 16-bit index register
// I, the program counter and the stack pointer shadow. VF doubles as the
// arithmetic flag: every carry/borrow/shift helper overwrites it. SP here
// is only a mirror for introspection; the real call depth lives in Stack.
type Registers struct {
	v  [NUM_REGISTERS]byte
	i  uint16
	pc uint16
	sp byte
}

func NewRegisters() *Registers {
	return &Registers{pc: PROGRAM_START}
}

func (r *Registers) Reset() {
	r.v = [NUM_REGISTERS]byte{}
	r.i = 0
	r.pc = PROGRAM_START
	r.sp = 0
}

func (r *Registers) GetV(index uint8) (byte, error) {
	if index >= NUM_REGISTERS {
		return 0, &RegisterError{Index: index}
	}
	return r.v[index], nil
}

func (r *Registers) SetV(index uint8, value byte) error {
	if index >= NUM_REGISTERS {
		return &RegisterError{Index: index}
	}
	r.v[index] = value
	return nil
}

// GetFlag returns VF.
func (r *Registers) GetFlag() byte {
	return r.v[FLAG_REGISTER]
}

// SetFlag writes VF.
func (r *Registers) SetFlag(value byte) {
	r.v[FLAG_REGISTER] = value
}

func (r *Registers) GetI() uint16 {
	return r.i
}

func (r *Registers) SetI(value uint16) {
	r.i = value
}

func (r *Registers) GetPC() uint16 {
	return r.pc
}

func (r *Registers) SetPC(value uint16) {
	r.pc = value
}

// IncrementPC advances past one instruction word, wrapping mod 65536.
func (r *Registers) IncrementPC() {
	r.pc += 2
}

// SkipNext is IncrementPC under the name the conditional opcodes use.
func (r *Registers) SkipNext() {
	r.pc += 2
}

func (r *Registers) GetSP() byte {
	return r.sp
}

func (r *Registers) SetSP(value byte) {
	r.sp = value
}

// AddWithCarry sets Vx = Vx + Vy wrapping mod 256, flag = 1 on overflow.
func (r *Registers) AddWithCarry(x, y uint8) error {
	vx, err := r.GetV(x)
	if err != nil {
		return err
	}
	vy, err := r.GetV(y)
	if err != nil {
		return err
	}
	sum := uint16(vx) + uint16(vy)
	if err := r.SetV(x, byte(sum)); err != nil {
		return err
	}
	if sum > 0xFF {
		r.SetFlag(1)
	} else {
		r.SetFlag(0)
	}
	return nil
}

// SubWithBorrow sets Vx = Vx - Vy wrapping mod 256. The flag convention is
// inverted: 1 when no borrow occurred, 0 when it did.
func (r *Registers) SubWithBorrow(x, y uint8) error {
	vx, err := r.GetV(x)
	if err != nil {
		return err
	}
	vy, err := r.GetV(y)
	if err != nil {
		return err
	}
	if err := r.SetV(x, vx-vy); err != nil {
		return err
	}
	if vx >= vy {
		r.SetFlag(1)
	} else {
		r.SetFlag(0)
	}
	return nil
}

// SubReverseWithBorrow sets Vx = Vy - Vx with the same inverted flag.
func (r *Registers) SubReverseWithBorrow(x, y uint8) error {
	vx, err := r.GetV(x)
	if err != nil {
		return err
	}
	vy, err := r.GetV(y)
	if err != nil {
		return err
	}
	if err := r.SetV(x, vy-vx); err != nil {
		return err
	}
	if vy >= vx {
		r.SetFlag(1)
	} else {
		r.SetFlag(0)
	}
	return nil
}

// ShiftRight sets Vx = Vx >> 1 and puts the pre-shift LSB into the flag.
func (r *Registers) ShiftRight(x uint8) error {
	vx, err := r.GetV(x)
	if err != nil {
		return err
	}
	if err := r.SetV(x, vx>>1); err != nil {
		return err
	}
	r.SetFlag(vx & 0x01)
	return nil
}

// ShiftLeft sets Vx = Vx << 1 and puts the pre-shift MSB into the flag.
func (r *Registers) ShiftLeft(x uint8) error {
	vx, err := r.GetV(x)
	if err != nil {
		return err
	}
	if err := r.SetV(x, vx<<1); err != nil {
		return err
	}
	r.SetFlag((vx & 0x80) >> 7)
	return nil
}

// GetRange returns a copy of count registers starting at start, used by
// the block store instruction.
func (r *Registers) GetRange(start uint8, count int) ([]byte, error) {
	if int(start)+count > NUM_REGISTERS {
		return nil, &RegisterError{Index: uint8(int(start) + count - 1)}
	}
	out := make([]byte, count)
	copy(out, r.v[start:int(start)+count])
	return out, nil
}

// SetRange writes values into consecutive registers starting at start,
// used by the block load instruction.
func (r *Registers) SetRange(start uint8, values []byte) error {
	if int(start)+len(values) > NUM_REGISTERS {
		return &RegisterError{Index: uint8(int(start) + len(values) - 1)}
	}
	copy(r.v[start:int(start)+len(values)], values)
	return nil
}

// AllV returns the full register bank as a snapshot array.
func (r *Registers) AllV() [NUM_REGISTERS]byte {
	return r.v
}
