// audio_interface.go - Audio sink interface and backend selection

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import "fmt"

// AudioSink is the collaborator the CPU drives from the sound timer edge.
// All methods must be safe no-ops when no output device exists, and
// idempotent: the CPU calls Play or Stop every cycle.
type AudioSink interface {
	Play()
	Stop()
	SetVolume(volume float64)
	SetFrequency(hz float64)
}

// AudioError provides error context for audio backend operations.
type AudioError struct {
	Operation string
	Details   string
	Err       error
}

func (e *AudioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("audio %s failed: %s", e.Operation, e.Details)
}

// Predefined audio backend types
const (
	AUDIO_BACKEND_OTO = iota // OTO v3 streaming output
	AUDIO_BACKEND_NONE       // Silent sink for mute and tests
)

// NewAudioOutput creates the streaming backend attached to a buzzer.
func NewAudioOutput(backend int, buzzer *Buzzer) (*OtoPlayer, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		player, err := NewOtoPlayer(buzzer.SampleRate())
		if err != nil {
			return nil, &AudioError{
				Operation: "backend creation",
				Details:   "oto context init",
				Err:       err,
			}
		}
		player.SetupPlayer(buzzer)
		return player, nil
	}
	return nil, &AudioError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}
