// rom_loader.go - Program image loading, inspection and benchmarking

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type ROMInfo struct {
	Path    string
	Title   string
	Size    int
	SHA1    string
	Opcodes []DisassembledLine
}

// LoadROMFile reads a program image and checks it fits the address
// space above the standard load point.
func LoadROMFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, ErrROMEmpty
	}
	if len(data) > MAX_ROM_SIZE {
		return nil, &ROMSizeError{Size: len(data), Max: MAX_ROM_SIZE}
	}
	return data, nil
}

// ROMTitle derives a display name from the file path.
func ROMTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// InspectROM gathers size, digest and the opening instructions of an
// image for the -info listing.
func InspectROM(path string) (*ROMInfo, error) {
	data, err := LoadROMFile(path)
	if err != nil {
		return nil, err
	}

	head := data
	if len(head) > 16 {
		head = head[:16]
	}
	return &ROMInfo{
		Path:    path,
		Title:   ROMTitle(path),
		Size:    len(data),
		SHA1:    fmt.Sprintf("%x", sha1.Sum(data)),
		Opcodes: DisassembleROM(head, PROGRAM_START),
	}, nil
}

func (info *ROMInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File:  %s\n", info.Path)
	fmt.Fprintf(&sb, "Title: %s\n", info.Title)
	fmt.Fprintf(&sb, "Size:  %d bytes\n", info.Size)
	fmt.Fprintf(&sb, "SHA-1: %s\n", info.SHA1)
	sb.WriteString("First instructions:\n")
	sb.WriteString(FormatListing(info.Opcodes))
	return sb.String()
}

// ValidateROM walks an image and reports every word the decoder does
// not recognize. Data tables trip this too, so an unclean result is a
// warning rather than a load failure.
func ValidateROM(rom []byte, base uint16) []DisassembledLine {
	var unknown []DisassembledLine
	for _, line := range DisassembleROM(rom, base) {
		if strings.HasPrefix(line.Mnemonic, ".D") {
			unknown = append(unknown, line)
		}
	}
	return unknown
}

// BenchmarkROM runs an image flat out for the given duration with no
// display or audio attached and reports the instruction rate.
func BenchmarkROM(rom []byte, duration time.Duration) (cyclesPerSecond float64, executed uint64, err error) {
	cpu := NewCPU()
	cpu.SetDisplay(NewDisplayPlane())
	if err := cpu.LoadROM(rom); err != nil {
		return 0, 0, err
	}

	start := time.Now()
	deadline := start.Add(duration)
	for time.Now().Before(deadline) {
		for i := 0; i < 1024; i++ {
			if err := cpu.Cycle(); err != nil {
				elapsed := time.Since(start).Seconds()
				count := cpu.State().InstructionCount
				return float64(count) / elapsed, count, err
			}
		}
	}
	elapsed := time.Since(start).Seconds()
	count := cpu.State().InstructionCount
	return float64(count) / elapsed, count, nil
}
