//go:build headless

// audio_backend_headless.go - Silent audio backend for headless builds

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

type OtoPlayer struct {
	started bool
	buzzer  *Buzzer
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	return &OtoPlayer{}, nil
}

func (op *OtoPlayer) SetupPlayer(buzzer *Buzzer) {
	op.buzzer = buzzer
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
