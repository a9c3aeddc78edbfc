// chip8_memory.go - 4KB CHIP-8 address space with the built-in glyph font

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

const (
	// Memory map
	MEMORY_SIZE   = 4096
	PROGRAM_START = 0x200
	ETI_START     = 0x600 // ETI 660 load address
	FONT_START    = 0x050
	FONT_SIZE     = 80 // 16 glyphs, 5 bytes each

	MAX_ROM_SIZE = MEMORY_SIZE - PROGRAM_START
)

// Built-in hexadecimal glyph set (0-F), 4 pixels wide, 5 rows tall.
var fontSet = [FONT_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat 4KB address space. Addresses 0x050-0x09F always hold
// the glyph font; it is reloaded by Clear. The wraparound flag selects the
// boundary policy for the whole instance: bounded accesses fail with
// MemoryError, wrapped accesses reduce the address modulo MEMORY_SIZE and
// never fail. One policy per machine, not per call.
type Memory struct {
	data       [MEMORY_SIZE]byte
	wraparound bool
}

func NewMemory() *Memory {
	mem := &Memory{}
	mem.loadFont()
	return mem
}

func (m *Memory) loadFont() {
	copy(m.data[FONT_START:FONT_START+FONT_SIZE], fontSet[:])
}

// SetWraparound switches the global addressing policy.
func (m *Memory) SetWraparound(enabled bool) {
	m.wraparound = enabled
}

func (m *Memory) Wraparound() bool {
	return m.wraparound
}

// resolve maps an address through the active boundary policy.
func (m *Memory) resolve(addr uint16) (uint16, error) {
	if addr < MEMORY_SIZE {
		return addr, nil
	}
	if m.wraparound {
		return addr % MEMORY_SIZE, nil
	}
	return 0, &MemoryError{Addr: addr}
}

func (m *Memory) ReadByte(addr uint16) (byte, error) {
	a, err := m.resolve(addr)
	if err != nil {
		return 0, err
	}
	return m.data[a], nil
}

func (m *Memory) WriteByte(addr uint16, value byte) error {
	a, err := m.resolve(addr)
	if err != nil {
		return err
	}
	m.data[a] = value
	return nil
}

// ReadWord reads a big-endian 16-bit word: high byte at addr, low at addr+1.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	hi, err := m.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	lo, err := m.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (m *Memory) WriteWord(addr uint16, value uint16) error {
	if err := m.WriteByte(addr, byte(value>>8)); err != nil {
		return err
	}
	return m.WriteByte(addr+1, byte(value))
}

// Load copies a ROM image into memory at start. The whole region from
// start to the end of memory is zeroed first so residue from a previous
// program cannot leak into the new one. An empty image and an image that
// does not fit are distinct load failures; nothing is written in either
// case.
func (m *Memory) Load(data []byte, start uint16) error {
	if len(data) == 0 {
		return ErrROMEmpty
	}
	if int(start) >= MEMORY_SIZE {
		return &MemoryError{Addr: start}
	}
	available := MEMORY_SIZE - int(start)
	if len(data) > available {
		return &ROMSizeError{Size: len(data), Max: available}
	}
	for i := int(start); i < MEMORY_SIZE; i++ {
		m.data[i] = 0
	}
	copy(m.data[start:], data)
	return nil
}

// Clear zeroes all of memory and reloads the glyph font.
func (m *Memory) Clear() {
	m.data = [MEMORY_SIZE]byte{}
	m.loadFont()
}

// FontAddress returns the address of the 5-byte glyph for a hex digit.
func (m *Memory) FontAddress(glyph byte) (uint16, error) {
	if glyph > 0xF {
		return 0, &MemoryError{Addr: uint16(glyph)}
	}
	return FONT_START + uint16(glyph)*5, nil
}

// Slice returns a read-only view of length bytes starting at addr. Views
// never wrap, even in wraparound mode: a view is contiguous storage.
func (m *Memory) Slice(addr uint16, length int) ([]byte, error) {
	end := int(addr) + length
	if end > MEMORY_SIZE {
		return nil, &MemoryError{Addr: addr}
	}
	return m.data[addr:end], nil
}

// Copy moves length bytes from src to dst, tolerating overlap.
func (m *Memory) Copy(src, dst uint16, length int) error {
	if int(src)+length > MEMORY_SIZE {
		return &MemoryError{Addr: src}
	}
	if int(dst)+length > MEMORY_SIZE {
		return &MemoryError{Addr: dst}
	}
	tmp := make([]byte, length)
	copy(tmp, m.data[src:int(src)+length])
	copy(m.data[dst:int(dst)+length], tmp)
	return nil
}
