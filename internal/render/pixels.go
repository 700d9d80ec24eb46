// Package render converts lattice space-time buffers into pixels.
package render

import "image/color"

var (
	// Background is the colour of an empty site.
	Background = color.RGBA{R: 12, G: 12, B: 16, A: 255}
	// Particle is the colour of a singly occupied site.
	Particle = color.RGBA{R: 236, G: 236, B: 240, A: 255}
)

// OccupancyPalette returns levels colours indexed by occupancy: 0 is the
// background, 1 a single particle, and higher occupancies fade from amber to
// red. Values past the end of the palette use the last colour.
func OccupancyPalette(levels int) []color.RGBA {
	if levels < 2 {
		levels = 2
	}
	p := make([]color.RGBA, levels)
	p[0] = Background
	p[1] = Particle
	hot := levels - 2
	for i := 0; i < hot; i++ {
		f := float64(i+1) / float64(hot)
		p[i+2] = color.RGBA{
			R: 255,
			G: uint8(200 - 170*f),
			B: uint8(60 - 40*f),
			A: 255,
		}
	}
	return p
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
