// chip8_stack.go - Fixed-depth call stack for subroutine return addresses

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

const STACK_SIZE = 16

// Stack is the 16-level LIFO of return addresses. Depth stays in [0,16];
// the 17th push and the pop of an empty stack fail without mutating state.
type Stack struct {
	data [STACK_SIZE]uint16
	sp   int
}

func NewStack() *Stack {
	return &Stack{}
}

func (s *Stack) Reset() {
	s.data = [STACK_SIZE]uint16{}
	s.sp = 0
}

func (s *Stack) Push(addr uint16) error {
	if s.sp >= STACK_SIZE {
		return ErrStackOverflow
	}
	s.data[s.sp] = addr
	s.sp++
	return nil
}

func (s *Stack) Pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	s.sp--
	addr := s.data[s.sp]
	s.data[s.sp] = 0
	return addr, nil
}

// Peek returns the top entry without removing it.
func (s *Stack) Peek() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	return s.data[s.sp-1], nil
}

func (s *Stack) Depth() int {
	return s.sp
}

func (s *Stack) IsEmpty() bool {
	return s.sp == 0
}

func (s *Stack) IsFull() bool {
	return s.sp >= STACK_SIZE
}

// Contents returns a bottom-to-top copy of the live entries for debugging.
func (s *Stack) Contents() []uint16 {
	out := make([]uint16, s.sp)
	copy(out, s.data[:s.sp])
	return out
}
