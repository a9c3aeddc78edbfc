// machine.go - Top-level wiring of interpreter, display, buzzer and keypad

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const FRAME_RATE = 60

// Resettable components return to their power-on state without
// reallocating.
type Resettable interface {
	Reset()
}

// Machine owns one interpreter instance and its peripherals. The run
// loop paces instruction execution against wall clock time and pushes
// finished frames at the display refresh rate.
type Machine struct {
	cpu    *CPU
	plane  *DisplayPlane
	buzzer *Buzzer
	player *OtoPlayer
	keypad *Keypad
	video  VideoOutput
	config *Config

	frame    []byte
	romTitle string

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	runErr   error
}

func NewMachine(cfg *Config) (*Machine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plane := NewDisplayPlane()
	keypad := NewKeypad()
	buzzer := NewBuzzer(cfg.BuzzerConfig())

	cpu := NewCPU()
	cpu.Memory().SetWraparound(cfg.Behavior.Wraparound)
	cpu.SetDisplay(plane)
	cpu.SetInput(keypad)
	cpu.SetAudio(buzzer)

	backend := VIDEO_BACKEND_EBITEN
	if cfg.Graphics.Terminal {
		backend = VIDEO_BACKEND_TERMINAL
	}
	video, err := NewVideoOutput(backend)
	if err != nil {
		return nil, err
	}
	if kc, ok := video.(KeypadCapable); ok {
		kc.AttachKeypad(keypad)
	}
	if err := video.SetDisplayConfig(DisplayConfig{
		Scale: cfg.Graphics.Scale,
		Title: "chirp8",
	}); err != nil {
		return nil, err
	}

	m := &Machine{
		cpu:    cpu,
		plane:  plane,
		buzzer: buzzer,
		keypad: keypad,
		video:  video,
		config: cfg,
		frame:  make([]byte, DISPLAY_PIXELS*4),
		stopCh: make(chan struct{}),
	}

	if !cfg.Audio.Mute {
		player, err := NewAudioOutput(AUDIO_BACKEND_OTO, buzzer)
		if err != nil {
			// Audio is optional: a machine without a sound device
			// still runs, the buzzer just stays inaudible.
			fmt.Printf("Audio unavailable: %v\n", err)
		} else {
			m.player = player
		}
	}

	return m, nil
}

// CPU exposes the interpreter for debuggers and tests.
func (m *Machine) CPU() *CPU {
	return m.cpu
}

// LoadROM places the program at the standard or ETI-660 start address
// and points the program counter at it.
func (m *Machine) LoadROM(rom []byte, title string) error {
	start := uint16(PROGRAM_START)
	if m.config.Behavior.ETILoad {
		start = ETI_START
	}
	if err := m.cpu.LoadROMAt(rom, start); err != nil {
		return err
	}
	m.romTitle = title
	return m.video.SetDisplayConfig(DisplayConfig{
		Scale: m.config.Graphics.Scale,
		Title: fmt.Sprintf("chirp8 - %s", title),
	})
}

// Run drives the interpreter until the program stops, the user quits
// or an execution error surfaces. Instructions are paced in batches
// per display frame so a slow refresh never stalls the timers.
func (m *Machine) Run() error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("machine already running")
	}
	defer m.running.Store(false)

	if sh, ok := m.video.(interface{ SetStopHandler(func()) }); ok {
		sh.SetStopHandler(m.Stop)
	}
	if err := m.video.Start(); err != nil {
		return err
	}
	defer m.video.Stop()

	if m.player != nil {
		m.player.Start()
		defer m.player.Close()
	}

	cps := m.config.Behavior.CyclesPerSecond
	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	// Fractional cycles carry over between frames so odd rates like
	// 700 Hz average out exactly.
	carry := 0

	for {
		select {
		case <-m.stopCh:
			return m.runErr
		case <-ticker.C:
		}

		budget := cps + carry
		cycles := budget / FRAME_RATE
		carry = budget % FRAME_RATE

		for i := 0; i < cycles; i++ {
			if err := m.cpu.Cycle(); err != nil {
				m.runErr = fmt.Errorf("at cycle %d: %w", m.cpu.State().InstructionCount, err)
				m.Stop()
				return m.runErr
			}
		}

		if m.plane.IsDirty() {
			m.pushFrame()
		}
	}
}

// Stop ends the run loop. Safe to call from any goroutine and more
// than once.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Reset returns every component to power-on state. The loaded program
// is cleared with the rest of memory.
func (m *Machine) Reset() {
	m.cpu.Reset()
	m.plane.Clear()
	m.keypad.ReleaseAll()
	m.buzzer.Stop()
	m.pushFrame()
}

// pushFrame converts the 1-bit plane into RGBA using the configured
// palette and hands it to the video backend.
func (m *Machine) pushFrame() {
	fg := m.config.Graphics.Foreground
	bg := m.config.Graphics.Background

	buffer := m.plane.Buffer()
	for i, on := range buffer {
		offset := i * 4
		c := bg
		if on {
			c = fg
		}
		m.frame[offset] = c.R
		m.frame[offset+1] = c.G
		m.frame[offset+2] = c.B
		m.frame[offset+3] = 0xFF
	}
	m.plane.MarkClean()

	if err := m.video.UpdateFrame(m.frame); err != nil {
		fmt.Printf("Frame update failed: %v\n", err)
	}
}
