//go:build ebiten

package ui

import (
	"image/color"

	"latticegas/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var activeColor = color.RGBA{R: 230, G: 40, B: 60, A: 200}

// Overlay marks the active sites of the newest row. Toggle with A.
type Overlay struct {
	sim        core.Sim
	scale      int
	showActive bool
	pixel      *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale, showActive: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the toggle key.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		o.showActive = !o.showActive
	}
}

// Draw paints a marker above every active site.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.showActive {
		return
	}
	obs, ok := o.sim.(core.Observer)
	if !ok {
		return
	}
	scale := float64(o.scale)
	if scale <= 0 {
		scale = 1
	}
	for _, x := range obs.ActiveSites() {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(x)*scale, 0)
		op.ColorScale.ScaleWithColor(activeColor)
		screen.DrawImage(o.pixel, op)
	}
}
