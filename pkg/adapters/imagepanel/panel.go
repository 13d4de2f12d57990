// Package imagepanel is an offscreen panel. It resolves textures through
// an in-memory store and composes each tick into an image, optionally with
// a one-line HUD, which Present hands to the debug sink.
package imagepanel

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

// ErrUnknownTexture is returned by Present when the shown handle is no
// longer live.
var ErrUnknownTexture = errors.New("imagepanel: unknown texture")

// TextureSource resolves texture handles to pixels.
type TextureSource interface {
	Get(handle ports.TextureHandle) (*pixconv.RGB24, bool)
}

// Options configures the panel.
type Options struct {
	Width      int
	Height     int
	Background color.Color // defaults to black

	// HUD draws the caption passed to Present over the bottom of the frame.
	HUD      bool
	FontSize float64
	FontPath string
}

// Panel implements ports.Panel without a window.
type Panel struct {
	textures TextureSource
	renderer ports.Renderer
	sink     ports.DebugSink
	opts     Options

	handle       ports.TextureHandle
	showW, showH int
	showing      bool
}

// New creates a panel of the configured size.
func New(textures TextureSource, renderer ports.Renderer, sink ports.DebugSink, opts Options) *Panel {
	if opts.FontSize <= 0 {
		opts.FontSize = 14
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	return &Panel{
		textures: textures,
		renderer: renderer,
		sink:     sink,
		opts:     opts,
	}
}

// Size returns the configured panel size.
func (p *Panel) Size() (int, int) {
	return p.opts.Width, p.opts.Height
}

// Show selects the texture to compose on the next Present.
func (p *Panel) Show(handle ports.TextureHandle, width, height int) {
	p.handle = handle
	p.showW, p.showH = width, height
	p.showing = true
}

// Clear deselects the texture.
func (p *Panel) Clear() {
	p.handle = 0
	p.showing = false
}

// Present composes the panel for a tick and saves it to the debug sink.
// A cleared panel composes to the background color.
func (p *Panel) Present(tick int, caption string) (image.Image, error) {
	canvas := p.renderer.CreateCanvas(p.opts.Width, p.opts.Height, p.opts.Background)

	if p.showing {
		tex, ok := p.textures.Get(p.handle)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, p.handle)
		}
		img := image.Image(tex)
		if tex.Width() != p.showW || tex.Height() != p.showH {
			img = p.renderer.ResizeImage(tex, p.showW, p.showH)
		}
		canvas.DrawImage(img, 0, 0)
	}

	if p.opts.HUD && caption != "" {
		p.drawCaption(canvas, caption)
	}

	out := canvas.ToImage()
	if p.sink.Enabled() {
		if err := p.sink.SavePanelFrame(tick, out); err != nil {
			return out, fmt.Errorf("save panel frame %d: %w", tick, err)
		}
	}
	return out, nil
}

func (p *Panel) drawCaption(canvas ports.Canvas, caption string) {
	style := ports.TextStyle{
		FontSize: p.opts.FontSize,
		FontPath: p.opts.FontPath,
		Color:    color.White,
	}
	_, h := canvas.MeasureText(caption, style)
	pad := int(p.opts.FontSize / 2)
	barH := int(h) + pad*2
	canvas.DrawRect(0, p.opts.Height-barH, p.opts.Width, barH, color.RGBA{A: 0xa0})
	canvas.DrawText(caption, pad, p.opts.Height-barH/2, style)
}

var _ ports.Panel = (*Panel)(nil)
