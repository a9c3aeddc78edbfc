// audio_buzzer.go - Single-voice tone generator behind the sound timer

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"math"
	"sync"
)

const DEFAULT_SAMPLE_RATE = 44100

// Waveform selects the oscillator shape for the buzzer tone.
type Waveform int

const (
	WaveSquare Waveform = iota
	WaveSine
	WaveSawtooth
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSquare:
		return "square"
	case WaveSine:
		return "sine"
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	}
	return "unknown"
}

// ParseWaveform maps a config string onto a Waveform.
func ParseWaveform(name string) (Waveform, bool) {
	switch name {
	case "square":
		return WaveSquare, true
	case "sine":
		return WaveSine, true
	case "sawtooth":
		return WaveSawtooth, true
	case "triangle":
		return WaveTriangle, true
	}
	return WaveSquare, false
}

// BuzzerConfig describes the tone the machine produces while the sound
// timer is nonzero.
type BuzzerConfig struct {
	Frequency  float64
	Volume     float64
	SampleRate int
	Waveform   Waveform
}

// ClassicBuzzerConfig is the harsh square beep of the original hardware.
func ClassicBuzzerConfig() BuzzerConfig {
	return BuzzerConfig{
		Frequency:  440.0,
		Volume:     0.4,
		SampleRate: DEFAULT_SAMPLE_RATE,
		Waveform:   WaveSquare,
	}
}

// ModernBuzzerConfig is a softer sine tone at a higher pitch.
func ModernBuzzerConfig() BuzzerConfig {
	return BuzzerConfig{
		Frequency:  800.0,
		Volume:     0.2,
		SampleRate: DEFAULT_SAMPLE_RATE,
		Waveform:   WaveSine,
	}
}

// buzzerState is the block shared between the engine thread and the audio
// callback thread, guarded by the Buzzer mutex. Ownership is split by
// field group: the engine writes frequency, volume and playing; the
// callback alone advances phase. Neither side touches the other group.
type buzzerState struct {
	frequency float64
	volume    float64
	playing   bool
	phase     float64
}

// Buzzer is the AudioSink implementation. The engine thread flips the
// control fields through short critical sections; the audio callback pulls
// samples with Fill. If the callback cannot take the lock it emits
// silence instead of blocking the realtime thread.
type Buzzer struct {
	mutex sync.Mutex
	state buzzerState

	sampleRate int
	waveform   Waveform
}

func NewBuzzer(config BuzzerConfig) *Buzzer {
	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = DEFAULT_SAMPLE_RATE
	}
	return &Buzzer{
		state: buzzerState{
			frequency: config.Frequency,
			volume:    clampUnit(config.Volume),
		},
		sampleRate: sampleRate,
		waveform:   config.Waveform,
	}
}

func (b *Buzzer) SampleRate() int {
	return b.sampleRate
}

// Play marks the tone audible. Idempotent.
func (b *Buzzer) Play() {
	b.mutex.Lock()
	b.state.playing = true
	b.mutex.Unlock()
}

// Stop silences the tone. Idempotent.
func (b *Buzzer) Stop() {
	b.mutex.Lock()
	b.state.playing = false
	b.mutex.Unlock()
}

func (b *Buzzer) IsPlaying() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state.playing
}

func (b *Buzzer) SetVolume(volume float64) {
	b.mutex.Lock()
	b.state.volume = clampUnit(volume)
	b.mutex.Unlock()
}

func (b *Buzzer) SetFrequency(hz float64) {
	b.mutex.Lock()
	if hz >= 0 {
		b.state.frequency = hz
	}
	b.mutex.Unlock()
}

// Fill renders the next len(samples) mono samples. Called from the audio
// callback thread only; it owns the phase accumulator. TryLock failure
// degrades to silence rather than stalling the stream.
func (b *Buzzer) Fill(samples []float32) {
	if !b.mutex.TryLock() {
		for i := range samples {
			samples[i] = 0
		}
		return
	}
	defer b.mutex.Unlock()

	if !b.state.playing || b.state.volume == 0 || b.state.frequency <= 0 {
		for i := range samples {
			samples[i] = 0
		}
		return
	}

	step := b.state.frequency / float64(b.sampleRate)
	for i := range samples {
		samples[i] = float32(b.sample(b.state.phase) * b.state.volume)
		b.state.phase += step
		if b.state.phase >= 1.0 {
			b.state.phase -= math.Floor(b.state.phase)
		}
	}
}

// sample evaluates one oscillator period at phase in [0,1).
func (b *Buzzer) sample(phase float64) float64 {
	switch b.waveform {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default: // square
		if phase < 0.5 {
			return 1
		}
		return -1
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
