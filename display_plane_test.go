// display_plane_test.go - XOR compositing, wrapping and collision tests

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import "testing"

// TestDrawSpriteSetsPixels verifies a sprite byte maps MSB-first onto
// consecutive columns.
func TestDrawSpriteSetsPixels(t *testing.T) {
	plane := NewDisplayPlane()

	collision, err := plane.DrawSprite(0, 0, []byte{0b10100000})
	if err != nil {
		t.Fatalf("DrawSprite failed: %v", err)
	}
	if collision {
		t.Fatal("Collision reported on an empty plane")
	}

	for x, want := range []bool{true, false, true, false} {
		got, _ := plane.GetPixel(byte(x), 0)
		if got != want {
			t.Fatalf("Pixel (%d,0) = %v, expected %v", x, got, want)
		}
	}
}

// TestDrawSpriteXORAndCollision verifies a second identical draw erases
// the sprite and reports the on-to-off transitions as a collision.
func TestDrawSpriteXORAndCollision(t *testing.T) {
	plane := NewDisplayPlane()
	sprite := []byte{0xF0, 0x90}

	plane.DrawSprite(8, 4, sprite)
	collision, err := plane.DrawSprite(8, 4, sprite)
	if err != nil {
		t.Fatalf("Second draw failed: %v", err)
	}
	if !collision {
		t.Fatal("Redraw over itself reported no collision")
	}
	for _, on := range plane.Buffer() {
		if on {
			t.Fatal("Plane not blank after XOR erase")
		}
	}
}

// TestDrawSpritePartialOverlapCollides verifies any single on-to-off
// cell flags the whole draw.
func TestDrawSpritePartialOverlapCollides(t *testing.T) {
	plane := NewDisplayPlane()
	plane.SetPixel(3, 0, true)

	collision, _ := plane.DrawSprite(0, 0, []byte{0b00011000})
	if !collision {
		t.Fatal("Draw overlapping one lit cell reported no collision")
	}
	// The overlapped cell turned off, its neighbor turned on.
	if on, _ := plane.GetPixel(3, 0); on {
		t.Fatal("Overlapped cell still on after XOR")
	}
	if on, _ := plane.GetPixel(4, 0); !on {
		t.Fatal("Non-overlapped sprite cell is off")
	}
}

// TestDrawSpriteWrapsBothAxes verifies toroidal wrapping at the right
// and bottom edges.
func TestDrawSpriteWrapsBothAxes(t *testing.T) {
	plane := NewDisplayPlane()

	collision, err := plane.DrawSprite(62, 31, []byte{0b11110000, 0b11110000})
	if err != nil {
		t.Fatalf("Edge draw failed: %v", err)
	}
	if collision {
		t.Fatal("Edge draw on empty plane reported collision")
	}

	// Row 31 columns 62,63 then wrapping to 0,1; row 0 the same.
	for _, p := range []struct{ x, y byte }{
		{62, 31}, {63, 31}, {0, 31}, {1, 31},
		{62, 0}, {63, 0}, {0, 0}, {1, 0},
	} {
		if on, _ := plane.GetPixel(p.x, p.y); !on {
			t.Fatalf("Wrapped pixel (%d,%d) is off", p.x, p.y)
		}
	}
}

// TestDrawSpriteStartCoordsBeyondPlane verifies start coordinates past
// the plane edge reduce modulo the dimensions.
func TestDrawSpriteStartCoordsBeyondPlane(t *testing.T) {
	plane := NewDisplayPlane()

	plane.DrawSprite(64+5, 32+3, []byte{0b10000000})
	if on, _ := plane.GetPixel(5, 3); !on {
		t.Fatal("Out-of-range start coordinate did not wrap to (5,3)")
	}
}

// TestClearAndDirty verifies Clear blanks the plane and the dirty bit
// follows the draw/consume cycle.
func TestClearAndDirty(t *testing.T) {
	plane := NewDisplayPlane()
	if plane.IsDirty() {
		t.Fatal("Fresh plane is dirty")
	}

	plane.DrawSprite(0, 0, []byte{0xFF})
	if !plane.IsDirty() {
		t.Fatal("Plane not dirty after draw")
	}

	plane.MarkClean()
	if plane.IsDirty() {
		t.Fatal("Plane dirty after MarkClean")
	}

	plane.Clear()
	if !plane.IsDirty() {
		t.Fatal("Plane not dirty after Clear")
	}
	for _, on := range plane.Buffer() {
		if on {
			t.Fatal("Plane not blank after Clear")
		}
	}
}

// TestZeroHeightSpriteIsNoop verifies an empty sprite draws nothing and
// leaves the dirty bit alone.
func TestZeroHeightSpriteIsNoop(t *testing.T) {
	plane := NewDisplayPlane()

	collision, err := plane.DrawSprite(10, 10, nil)
	if err != nil {
		t.Fatalf("Zero-height draw failed: %v", err)
	}
	if collision {
		t.Fatal("Zero-height draw reported collision")
	}
	if plane.IsDirty() {
		t.Fatal("Zero-height draw marked the plane dirty")
	}
}

// TestGetSetPixelBounds verifies direct pixel access rejects
// out-of-range coordinates.
func TestGetSetPixelBounds(t *testing.T) {
	plane := NewDisplayPlane()

	if _, err := plane.GetPixel(64, 0); err == nil {
		t.Fatal("GetPixel(64,0) succeeded, expected CoordError")
	}
	if err := plane.SetPixel(0, 32, true); err == nil {
		t.Fatal("SetPixel(0,32) succeeded, expected CoordError")
	}
}
