// video_interface.go - Video output interface for the CHIP-8 machine

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import "fmt"

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

// DisplayConfig contains backend-independent presentation settings. The
// frame itself is always the native 64x32 plane; Scale is the integer
// factor backends apply on output.
type DisplayConfig struct {
	Width       int
	Height      int
	Scale       int
	RefreshRate int
	Title       string
	VSync       bool
}

// VideoOutput is the minimal interface a presentation backend implements.
// Frames arrive as RGBA bytes, native resolution, row-major.
type VideoOutput interface {
	// Lifecycle management
	Start() error
	Stop() error
	IsStarted() bool

	// Core display operations
	SetDisplayConfig(config DisplayConfig) error
	GetDisplayConfig() DisplayConfig
	UpdateFrame(buffer []byte) error

	// Timing
	GetFrameCount() uint64
}

// KeypadCapable is implemented by backends that can feed key events into
// the machine's keypad.
type KeypadCapable interface {
	AttachKeypad(keypad *Keypad)
}

// Predefined video backend types
const (
	VIDEO_BACKEND_EBITEN   = iota // Pure Go Ebiten window
	VIDEO_BACKEND_TERMINAL        // Raw-mode terminal renderer
)

// NewVideoOutput creates a new video output instance using the specified backend
func NewVideoOutput(backend int) (VideoOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewEbitenOutput()
	case VIDEO_BACKEND_TERMINAL:
		return NewTerminalOutput()
	}
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}
