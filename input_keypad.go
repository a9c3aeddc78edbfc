// input_keypad.go - 16-key hexadecimal keypad state and QWERTY mapping

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"sync"
	"time"
)

const NUM_KEYS = 16

// KeySource is the input collaborator polled by the skip-on-key opcodes
// and the key-wait sub-state.
type KeySource interface {
	IsKeyPressed(key byte) bool
	FirstPressedKey() (byte, bool)
}

// Keypad tracks which of the 16 hex keys are down. Video backends write
// into it from their event threads, the CPU polls it from the machine
// thread, so access is mutex-guarded.
//
// Terminal input only delivers press events, never releases, so presses
// from that path carry an expiry: PressTransient holds the key down for a
// short window and IsKeyPressed ages it out.
type Keypad struct {
	mutex   sync.Mutex
	pressed [NUM_KEYS]bool
	expiry  [NUM_KEYS]time.Time
}

// Hold window for transient (terminal) key presses.
const transientKeyHold = 120 * time.Millisecond

func NewKeypad() *Keypad {
	return &Keypad{}
}

// Press marks a key down until Release.
func (k *Keypad) Press(key byte) {
	if key >= NUM_KEYS {
		return
	}
	k.mutex.Lock()
	k.pressed[key] = true
	k.expiry[key] = time.Time{}
	k.mutex.Unlock()
}

// Release marks a key up.
func (k *Keypad) Release(key byte) {
	if key >= NUM_KEYS {
		return
	}
	k.mutex.Lock()
	k.pressed[key] = false
	k.expiry[key] = time.Time{}
	k.mutex.Unlock()
}

// PressTransient marks a key down for the transient hold window, for
// input paths without release events.
func (k *Keypad) PressTransient(key byte) {
	if key >= NUM_KEYS {
		return
	}
	k.mutex.Lock()
	k.pressed[key] = true
	k.expiry[key] = time.Now().Add(transientKeyHold)
	k.mutex.Unlock()
}

// ReleaseAll clears the whole keypad, used on reset and focus loss.
func (k *Keypad) ReleaseAll() {
	k.mutex.Lock()
	k.pressed = [NUM_KEYS]bool{}
	k.expiry = [NUM_KEYS]time.Time{}
	k.mutex.Unlock()
}

func (k *Keypad) IsKeyPressed(key byte) bool {
	if key >= NUM_KEYS {
		return false
	}
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return k.isDownLocked(key)
}

// FirstPressedKey returns the lowest-numbered key currently down.
func (k *Keypad) FirstPressedKey() (byte, bool) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	for key := byte(0); key < NUM_KEYS; key++ {
		if k.isDownLocked(key) {
			return key, true
		}
	}
	return 0, false
}

func (k *Keypad) isDownLocked(key byte) bool {
	if !k.pressed[key] {
		return false
	}
	if !k.expiry[key].IsZero() && time.Now().After(k.expiry[key]) {
		k.pressed[key] = false
		k.expiry[key] = time.Time{}
		return false
	}
	return true
}

// runeKeymap is the QWERTY layout used by the terminal backend:
//
//	CHIP-8:    QWERTY:
//	1 2 3 C    1 2 3 4
//	4 5 6 D    Q W E R
//	7 8 9 E    A S D F
//	A 0 B F    Z X C V
var runeKeymap = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// MapRuneKey translates a typed character to a keypad key.
func MapRuneKey(r rune) (byte, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	key, ok := runeKeymap[r]
	return key, ok
}
