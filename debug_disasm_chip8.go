// debug_disasm_chip8.go - Instruction decoder for listings and ROM checks

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"strings"
)

type DisassembledLine struct {
	Address      uint16
	Opcode       uint16
	Mnemonic     string
	IsBranch     bool
	BranchTarget uint16
}

// DecodeInstruction renders one opcode as mnemonic text. Unrecognized
// encodings come back as a raw word with ok false so callers can count
// them without failing the whole listing.
func DecodeInstruction(opcode uint16) (mnemonic string, ok bool) {
	nnn := opcode & 0x0FFF
	nn := byte(opcode & 0x00FF)
	n := byte(opcode & 0x000F)
	x := byte((opcode & 0x0F00) >> 8)
	y := byte((opcode & 0x00F0) >> 4)

	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return "CLS", true
		case 0x00EE:
			return "RET", true
		}
		return fmt.Sprintf("SYS %03X", nnn), true
	case 0x1000:
		return fmt.Sprintf("JP %03X", nnn), true
	case 0x2000:
		return fmt.Sprintf("CALL %03X", nnn), true
	case 0x3000:
		return fmt.Sprintf("SE V%X, %02X", x, nn), true
	case 0x4000:
		return fmt.Sprintf("SNE V%X, %02X", x, nn), true
	case 0x5000:
		if n != 0 {
			break
		}
		return fmt.Sprintf("SE V%X, V%X", x, y), true
	case 0x6000:
		return fmt.Sprintf("LD V%X, %02X", x, nn), true
	case 0x7000:
		return fmt.Sprintf("ADD V%X, %02X", x, nn), true
	case 0x8000:
		switch n {
		case 0x0:
			return fmt.Sprintf("LD V%X, V%X", x, y), true
		case 0x1:
			return fmt.Sprintf("OR V%X, V%X", x, y), true
		case 0x2:
			return fmt.Sprintf("AND V%X, V%X", x, y), true
		case 0x3:
			return fmt.Sprintf("XOR V%X, V%X", x, y), true
		case 0x4:
			return fmt.Sprintf("ADD V%X, V%X", x, y), true
		case 0x5:
			return fmt.Sprintf("SUB V%X, V%X", x, y), true
		case 0x6:
			return fmt.Sprintf("SHR V%X", x), true
		case 0x7:
			return fmt.Sprintf("SUBN V%X, V%X", x, y), true
		case 0xE:
			return fmt.Sprintf("SHL V%X", x), true
		}
	case 0x9000:
		if n != 0 {
			break
		}
		return fmt.Sprintf("SNE V%X, V%X", x, y), true
	case 0xA000:
		return fmt.Sprintf("LD I, %03X", nnn), true
	case 0xB000:
		return fmt.Sprintf("JP V0, %03X", nnn), true
	case 0xC000:
		return fmt.Sprintf("RND V%X, %02X", x, nn), true
	case 0xD000:
		return fmt.Sprintf("DRW V%X, V%X, %X", x, y, n), true
	case 0xE000:
		switch nn {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x), true
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x), true
		}
	case 0xF000:
		switch nn {
		case 0x07:
			return fmt.Sprintf("LD V%X, DT", x), true
		case 0x0A:
			return fmt.Sprintf("LD V%X, K", x), true
		case 0x15:
			return fmt.Sprintf("LD DT, V%X", x), true
		case 0x18:
			return fmt.Sprintf("LD ST, V%X", x), true
		case 0x1E:
			return fmt.Sprintf("ADD I, V%X", x), true
		case 0x29:
			return fmt.Sprintf("LD F, V%X", x), true
		case 0x33:
			return fmt.Sprintf("LD B, V%X", x), true
		case 0x55:
			return fmt.Sprintf("LD [I], V%X", x), true
		case 0x65:
			return fmt.Sprintf("LD V%X, [I]", x), true
		}
	}
	return fmt.Sprintf(".DW %04X", opcode), false
}

// DisassembleROM lists every word of a program image at its loaded
// address. The image is walked in fixed two byte steps with a trailing
// odd byte listed as data.
func DisassembleROM(rom []byte, base uint16) []DisassembledLine {
	var lines []DisassembledLine
	for offset := 0; offset+1 < len(rom); offset += 2 {
		opcode := uint16(rom[offset])<<8 | uint16(rom[offset+1])
		mnemonic, _ := DecodeInstruction(opcode)
		line := DisassembledLine{
			Address:  base + uint16(offset),
			Opcode:   opcode,
			Mnemonic: mnemonic,
		}
		switch opcode & 0xF000 {
		case 0x1000, 0x2000:
			line.IsBranch = true
			line.BranchTarget = opcode & 0x0FFF
		}
		lines = append(lines, line)
	}
	if len(rom)%2 != 0 {
		lines = append(lines, DisassembledLine{
			Address:  base + uint16(len(rom)-1),
			Opcode:   uint16(rom[len(rom)-1]),
			Mnemonic: fmt.Sprintf(".DB %02X", rom[len(rom)-1]),
		})
	}
	return lines
}

// FormatListing renders disassembled lines in the monitor layout.
func FormatListing(lines []DisassembledLine) string {
	var sb strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&sb, "%04X: %04X  %s\n", line.Address, line.Opcode, line.Mnemonic)
	}
	return sb.String()
}
