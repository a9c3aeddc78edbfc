// video_backend_terminal.go - ANSI half-block rendering with raw stdin keys

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/term"
)

// TerminalOutput draws the display into the controlling terminal. Each
// text cell covers two vertically stacked pixels via the upper half
// block glyph, so the 64x32 plane fits in a 64x16 character region.
type TerminalOutput struct {
	running      bool
	title        string
	frameBuffer  []byte
	bufferMutex  sync.RWMutex
	frameCount   uint64
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State

	keypad      *Keypad
	stopHandler func()
}

func NewTerminalOutput() (VideoOutput, error) {
	return &TerminalOutput{
		title:       "chirp8",
		frameBuffer: make([]byte, DISPLAY_PIXELS*4),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

func (to *TerminalOutput) AttachKeypad(keypad *Keypad) {
	to.bufferMutex.Lock()
	to.keypad = keypad
	to.bufferMutex.Unlock()
}

// SetStopHandler registers the callback fired when the user quits with Esc.
func (to *TerminalOutput) SetStopHandler(fn func()) {
	to.bufferMutex.Lock()
	to.stopHandler = fn
	to.bufferMutex.Unlock()
}

// Start puts stdin in raw mode and begins the key reading goroutine.
// Raw mode disables OS-level echo and line buffering so keypad keys
// arrive one byte at a time. Call Stop() to restore the terminal.
func (to *TerminalOutput) Start() error {
	if to.running {
		return nil
	}
	to.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(to.fd)
	if err != nil {
		return &VideoError{Operation: "terminal start", Details: "raw mode", Err: err}
	}
	to.oldTermState = oldState

	if err := syscall.SetNonblock(to.fd, true); err != nil {
		_ = term.Restore(to.fd, to.oldTermState)
		to.oldTermState = nil
		return &VideoError{Operation: "terminal start", Details: "nonblocking stdin", Err: err}
	}
	to.nonblockSet = true
	to.running = true

	// Hide the cursor and clear once; frames repaint from the home
	// position without clearing to avoid flicker.
	fmt.Print("\x1b[?25l\x1b[2J")

	go to.readKeys()
	return nil
}

func (to *TerminalOutput) readKeys() {
	defer close(to.done)
	buf := make([]byte, 1)

	for {
		select {
		case <-to.stopCh:
			return
		default:
		}

		n, err := syscall.Read(to.fd, buf)
		if n > 0 {
			to.routeKey(buf[0])
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (to *TerminalOutput) routeKey(b byte) {
	// Esc or Ctrl+C quits; the terminal delivers no key release
	// events, so everything else becomes a transient press.
	if b == 0x1B || b == 0x03 {
		to.bufferMutex.RLock()
		handler := to.stopHandler
		to.bufferMutex.RUnlock()
		if handler != nil {
			handler()
		}
		return
	}

	to.bufferMutex.RLock()
	keypad := to.keypad
	to.bufferMutex.RUnlock()
	if keypad == nil {
		return
	}
	if key, ok := MapRuneKey(rune(b)); ok {
		keypad.PressTransient(key)
	}
}

// Stop terminates the key reader and restores the terminal state.
func (to *TerminalOutput) Stop() error {
	if !to.running {
		return nil
	}
	to.running = false
	to.stopped.Do(func() {
		close(to.stopCh)
	})
	<-to.done
	if to.nonblockSet {
		_ = syscall.SetNonblock(to.fd, false)
		to.nonblockSet = false
	}
	if to.oldTermState != nil {
		_ = term.Restore(to.fd, to.oldTermState)
		to.oldTermState = nil
	}
	fmt.Print("\x1b[?25h\x1b[0m\x1b[2J\x1b[H")
	return nil
}

func (to *TerminalOutput) IsStarted() bool {
	return to.running
}

func (to *TerminalOutput) SetDisplayConfig(config DisplayConfig) error {
	to.bufferMutex.Lock()
	defer to.bufferMutex.Unlock()
	if config.Title != "" {
		to.title = config.Title
	}
	return nil
}

func (to *TerminalOutput) GetDisplayConfig() DisplayConfig {
	to.bufferMutex.RLock()
	defer to.bufferMutex.RUnlock()
	return DisplayConfig{
		Width:       DISPLAY_WIDTH,
		Height:      DISPLAY_HEIGHT,
		Scale:       1,
		RefreshRate: 60,
		Title:       to.title,
	}
}

func (to *TerminalOutput) UpdateFrame(buffer []byte) error {
	if len(buffer) != len(to.frameBuffer) {
		return &VideoError{
			Operation: "frame update",
			Details:   fmt.Sprintf("buffer size %d, expected %d", len(buffer), len(to.frameBuffer)),
		}
	}
	to.bufferMutex.Lock()
	copy(to.frameBuffer, buffer)
	to.bufferMutex.Unlock()

	if to.running {
		fmt.Print(to.renderFrame())
	}
	atomic.AddUint64(&to.frameCount, 1)
	return nil
}

func (to *TerminalOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&to.frameCount)
}

// renderFrame builds one ANSI repaint of the whole display. Two pixel
// rows map onto one character row through the half block glyph with
// the foreground covering the upper pixel and the background the
// lower one.
func (to *TerminalOutput) renderFrame() string {
	to.bufferMutex.RLock()
	defer to.bufferMutex.RUnlock()

	var sb strings.Builder
	sb.Grow(DISPLAY_PIXELS * 4)
	sb.WriteString("\x1b[H")
	sb.WriteString(to.title)
	sb.WriteString("  (Esc quits)\x1b[K\r\n")

	for y := 0; y < DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			upper := to.pixelLitLocked(x, y)
			lower := to.pixelLitLocked(x, y+1)
			switch {
			case upper && lower:
				sb.WriteString("\x1b[97;107m▀")
			case upper:
				sb.WriteString("\x1b[97;40m▀")
			case lower:
				sb.WriteString("\x1b[30;107m▀")
			default:
				sb.WriteString("\x1b[30;40m▀")
			}
		}
		sb.WriteString("\x1b[0m\x1b[K\r\n")
	}
	return sb.String()
}

func (to *TerminalOutput) pixelLitLocked(x, y int) bool {
	offset := (y*DISPLAY_WIDTH + x) * 4
	return to.frameBuffer[offset] != 0 || to.frameBuffer[offset+1] != 0 || to.frameBuffer[offset+2] != 0
}
