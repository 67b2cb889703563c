// Package bayer models a raw sensor mosaic and splits it into its four
// color-filter planes.
package bayer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFrame is returned when a frame cannot be evenly tiled into
// 2x2 Bayer cells.
var ErrMalformedFrame = errors.New("frame is not evenly tileable")

// Frame is one decoded sensor mosaic: row-major samples, top-left origin.
type Frame struct {
	Pix    []uint16
	Width  int
	Height int
}

// Plane is one sub-sampled color channel of a Frame.
type Plane struct {
	Name   string
	Pix    []uint16
	Width  int
	Height int
}

// Pattern maps the four offsets of a 2x2 Bayer cell to channel indexes.
// The offsets are (0,0), (0,1), (1,0), (1,1) in (row, col) order, matching
// the character order of layouts like "RGGB".
type Pattern struct {
	layout string
	// channel[i] is the output channel (0=R, 1=G1, 2=G2, 3=B) for offset i.
	channel [4]int
}

// PlaneNames is the fixed output channel order.
var PlaneNames = [4]string{"R", "G1", "G2", "B"}

// DefaultPattern is the layout used by most interline CMOS sensors.
var DefaultPattern = MustParsePattern("RGGB")

// ParsePattern parses a 4-character Bayer layout such as "RGGB" or "BGGR".
// The layout must contain exactly one R, one B and two Gs. The first G in
// row-major order becomes channel G1, the second G2.
func ParsePattern(s string) (Pattern, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if len(up) != 4 {
		return Pattern{}, fmt.Errorf("bayer layout %q: want 4 characters", s)
	}

	p := Pattern{layout: up}
	greens := 0
	seen := map[byte]bool{}

	for i := 0; i < 4; i++ {
		switch up[i] {
		case 'R':
			p.channel[i] = 0
		case 'G':
			if greens == 0 {
				p.channel[i] = 1
			} else {
				p.channel[i] = 2
			}
			greens++
		case 'B':
			p.channel[i] = 3
		default:
			return Pattern{}, fmt.Errorf("bayer layout %q: unknown filter %q", s, up[i])
		}
		if up[i] != 'G' && seen[up[i]] {
			return Pattern{}, fmt.Errorf("bayer layout %q: duplicate filter %q", s, up[i])
		}
		seen[up[i]] = true
	}

	if greens != 2 {
		return Pattern{}, fmt.Errorf("bayer layout %q: want exactly 2 green filters, got %d", s, greens)
	}

	return p, nil
}

// MustParsePattern is ParsePattern for known-good layouts.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string {
	return p.layout
}

// Filter returns the filter letter at cell offset (dy, dx).
func (p Pattern) Filter(dy, dx int) string {
	return PlaneNames[p.channel[dy*2+dx]]
}

// Split partitions the frame into its four channel planes, each W/2 x H/2,
// in the fixed order R, G1, G2, B. Every source sample lands in exactly one
// plane.
func (f *Frame) Split(p Pattern) ([4]Plane, error) {
	var planes [4]Plane

	if f.Width <= 0 || f.Height <= 0 || f.Width%2 != 0 || f.Height%2 != 0 {
		return planes, fmt.Errorf("%dx%d: %w", f.Width, f.Height, ErrMalformedFrame)
	}
	if len(f.Pix) != f.Width*f.Height {
		return planes, fmt.Errorf("%d samples for %dx%d: %w", len(f.Pix), f.Width, f.Height, ErrMalformedFrame)
	}

	pw, ph := f.Width/2, f.Height/2
	for i := range planes {
		planes[i] = Plane{
			Name:   PlaneNames[i],
			Pix:    make([]uint16, pw*ph),
			Width:  pw,
			Height: ph,
		}
	}

	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					ch := p.channel[dy*2+dx]
					planes[ch].Pix[y*pw+x] = f.Pix[(2*y+dy)*f.Width+(2*x+dx)]
				}
			}
		}
	}

	return planes, nil
}
