// display_plane.go - 64x32 monochrome plane with XOR sprite compositing

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_PIXELS = DISPLAY_WIDTH * DISPLAY_HEIGHT
)

// Display is the capability the CPU needs from a display collaborator.
// The CPU holds it optionally: with no display attached, draws do nothing
// and never collide.
type Display interface {
	Clear()
	DrawSprite(x, y byte, sprite []byte) (bool, error)
	Buffer() []bool
}

// DisplayPlane is the software plane backing the machine's screen. Sprites
// XOR into the grid with both axes wrapping; a collision is any cell the
// draw turned from on to off. The dirty bit tells the renderer a frame is
// owed; the plane itself never touches a window or a pixel format.
type DisplayPlane struct {
	pixels [DISPLAY_PIXELS]bool
	dirty  bool
}

func NewDisplayPlane() *DisplayPlane {
	return &DisplayPlane{}
}

func (d *DisplayPlane) index(x, y byte) (int, error) {
	if int(x) >= DISPLAY_WIDTH || int(y) >= DISPLAY_HEIGHT {
		return 0, &CoordError{X: x, Y: y}
	}
	return int(y)*DISPLAY_WIDTH + int(x), nil
}

// Clear switches every cell off.
func (d *DisplayPlane) Clear() {
	d.pixels = [DISPLAY_PIXELS]bool{}
	d.dirty = true
}

// DrawSprite composites sprite bytes at (x, y), MSB leftmost, one byte per
// row. Coordinates wrap toroidally, so drawing itself cannot fail; the
// error return exists for interface symmetry with remote display
// implementations.
func (d *DisplayPlane) DrawSprite(x, y byte, sprite []byte) (bool, error) {
	collision := false
	for row, spriteByte := range sprite {
		py := (int(y) + row) % DISPLAY_HEIGHT
		for col := 0; col < 8; col++ {
			if spriteByte&(0x80>>col) == 0 {
				continue
			}
			px := (int(x) + col) % DISPLAY_WIDTH
			idx := py*DISPLAY_WIDTH + px
			if d.pixels[idx] {
				collision = true
			}
			d.pixels[idx] = !d.pixels[idx]
		}
	}
	if len(sprite) > 0 {
		d.dirty = true
	}
	return collision, nil
}

func (d *DisplayPlane) GetPixel(x, y byte) (bool, error) {
	idx, err := d.index(x, y)
	if err != nil {
		return false, err
	}
	return d.pixels[idx], nil
}

func (d *DisplayPlane) SetPixel(x, y byte, on bool) error {
	idx, err := d.index(x, y)
	if err != nil {
		return err
	}
	d.pixels[idx] = on
	d.dirty = true
	return nil
}

// Buffer exposes the row-major cell grid to renderers.
func (d *DisplayPlane) Buffer() []bool {
	return d.pixels[:]
}

// IsDirty reports whether a re-render is owed.
func (d *DisplayPlane) IsDirty() bool {
	return d.dirty
}

// MarkClean is called by the renderer after it consumed the buffer.
func (d *DisplayPlane) MarkClean() {
	d.dirty = false
}
