//go:build !headless

// video_backend_ebiten.go - Ebiten windowed output and keypad capture

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const statusBarHeight = 16

// ebitenKeymap is the QWERTY keypad layout for the windowed backend,
// same arrangement as runeKeymap.
var ebitenKeymap = map[ebiten.Key]byte{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

type EbitenOutput struct {
	running     bool
	width       int
	height      int
	scale       int
	fullscreen  bool
	title       string
	frame       *ebiten.Image
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  uint64
	vsyncChan   chan struct{}
	done        chan struct{}

	keypad        *Keypad
	showStatusBar bool

	stopHandler func()
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		width:         DISPLAY_WIDTH,
		height:        DISPLAY_HEIGHT,
		scale:         10,
		title:         "chirp8",
		frameBuffer:   make([]byte, DISPLAY_PIXELS*4),
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
		showStatusBar: true,
	}, nil
}

func (eo *EbitenOutput) AttachKeypad(keypad *Keypad) {
	eo.bufferMutex.Lock()
	eo.keypad = keypad
	eo.bufferMutex.Unlock()
}

// SetStopHandler registers the callback fired when the window closes.
func (eo *EbitenOutput) SetStopHandler(fn func()) {
	eo.bufferMutex.Lock()
	eo.stopHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.running = true
	ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale+statusBarHeight)
	ebiten.SetWindowTitle(eo.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running = false
			select {
			case <-eo.done:
			default:
				close(eo.done)
			}
		}()
		if err := ebiten.RunGame(eo); err != nil && err != ebiten.Termination {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for the first Draw call so callers see a live window.
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

// Done is closed when the window loop exits.
func (eo *EbitenOutput) Done() <-chan struct{} {
	return eo.done
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	if config.Scale > 0 {
		eo.scale = config.Scale
	}
	if config.Title != "" {
		eo.title = config.Title
	}
	if eo.running {
		ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale+statusBarHeight)
		ebiten.SetWindowTitle(eo.title)
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		RefreshRate: 60,
		Title:       eo.title,
		VSync:       true,
	}
}

func (eo *EbitenOutput) UpdateFrame(buffer []byte) error {
	if len(buffer) != len(eo.frameBuffer) {
		return &VideoError{
			Operation: "frame update",
			Details:   fmt.Sprintf("buffer size %d, expected %d", len(buffer), len(eo.frameBuffer)),
		}
	}
	eo.bufferMutex.Lock()
	copy(eo.frameBuffer, buffer)
	eo.bufferMutex.Unlock()
	return nil
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&eo.frameCount)
}

// Update handles window keys and routes keypad edges into the machine.
func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() || !eo.running {
		eo.bufferMutex.RLock()
		handler := eo.stopHandler
		eo.bufferMutex.RUnlock()
		if handler != nil {
			handler()
		}
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}

	eo.bufferMutex.RLock()
	keypad := eo.keypad
	eo.bufferMutex.RUnlock()
	if keypad != nil {
		for key, chipKey := range ebitenKeymap {
			if inpututil.IsKeyJustPressed(key) {
				keypad.Press(chipKey)
			}
			if inpututil.IsKeyJustReleased(key) {
				keypad.Release(chipKey)
			}
		}
	}
	return nil
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.frame == nil {
		eo.frame = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.frame.WritePixels(eo.frameBuffer)
	showBar := eo.showStatusBar
	eo.bufferMutex.RUnlock()

	screen.Fill(color.Black)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	drawH := sh
	if showBar {
		drawH -= statusBarHeight
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sw)/float64(eo.width), float64(drawH)/float64(eo.height))
	screen.DrawImage(eo.frame, op)

	if showBar {
		legend := fmt.Sprintf("%s | %.0f fps | F11 fullscreen | F12 hide bar", eo.title, ebiten.ActualFPS())
		text.Draw(screen, legend, basicfont.Face7x13, 4, sh-4, color.White)
	}

	atomic.AddUint64(&eo.frameCount, 1)
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
