// chip8_errors.go - Error types shared by the CHIP-8 machine core

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	ErrROMEmpty       = errors.New("rom image is empty")
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
)

// MemoryError reports an out-of-range access in bounded addressing mode.
type MemoryError struct {
	Addr uint16
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("invalid memory access at address 0x%03X", e.Addr)
}

// UnknownInstructionError reports an opcode that matches no dispatch rule.
// It is fatal for the ROM being run; the core never retries decode.
type UnknownInstructionError struct {
	Opcode uint16
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction 0x%04X", e.Opcode)
}

// ROMSizeError reports a ROM image larger than the space left between its
// load address and the end of memory.
type ROMSizeError struct {
	Size int
	Max  int
}

func (e *ROMSizeError) Error() string {
	return fmt.Sprintf("rom image too large: %d bytes (max %d)", e.Size, e.Max)
}

// RegisterError reports a V register index outside 0..15. The nibble decode
// cannot produce one, but the register file is also a public API.
type RegisterError struct {
	Index uint8
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("invalid register index %d", e.Index)
}

// CoordError reports pixel coordinates outside the display plane. Sprite
// drawing wraps and never produces this; the direct accessors do.
type CoordError struct {
	X, Y uint8
}

func (e *CoordError) Error() string {
	return fmt.Sprintf("invalid display coordinates (%d, %d)", e.X, e.Y)
}

// ConfigError reports a configuration value outside its accepted range.
type ConfigError struct {
	Key   string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration value for %q: %s", e.Key, e.Value)
}
