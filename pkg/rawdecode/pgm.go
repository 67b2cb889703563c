package rawdecode

import (
	"fmt"

	"github.com/openastro/raw2fits/pkg/bayer"
)

// ParsePGM parses a binary (P5) PGM stream into a sensor frame. dcraw emits
// 16-bit big-endian samples in document mode; 8-bit streams are widened.
func ParsePGM(data []byte) (*bayer.Frame, error) {
	p := &pgmParser{data: data}

	magic, err := p.token()
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, fmt.Errorf("pgm: bad magic %q", magic)
	}

	width, err := p.number("width")
	if err != nil {
		return nil, err
	}
	height, err := p.number("height")
	if err != nil {
		return nil, err
	}
	maxval, err := p.number("maxval")
	if err != nil {
		return nil, err
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pgm: bad dimensions %dx%d", width, height)
	}
	if maxval <= 0 || maxval > 65535 {
		return nil, fmt.Errorf("pgm: bad maxval %d", maxval)
	}

	// Exactly one whitespace byte separates the header from the raster.
	if err := p.skipOne(); err != nil {
		return nil, err
	}

	n := width * height
	pix := make([]uint16, n)
	raster := p.data[p.pos:]

	if maxval > 255 {
		if len(raster) < 2*n {
			return nil, fmt.Errorf("pgm: raster has %d bytes, want %d", len(raster), 2*n)
		}
		for i := 0; i < n; i++ {
			pix[i] = uint16(raster[2*i])<<8 | uint16(raster[2*i+1])
		}
	} else {
		if len(raster) < n {
			return nil, fmt.Errorf("pgm: raster has %d bytes, want %d", len(raster), n)
		}
		for i := 0; i < n; i++ {
			pix[i] = uint16(raster[i])
		}
	}

	return &bayer.Frame{Pix: pix, Width: width, Height: height}, nil
}

type pgmParser struct {
	data []byte
	pos  int
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// token returns the next whitespace-delimited token, skipping '#' comments.
func (p *pgmParser) token() (string, error) {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		switch {
		case isSpace(b):
			p.pos++
		case b == '#':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' {
				p.pos++
			}
		default:
			start := p.pos
			for p.pos < len(p.data) && !isSpace(p.data[p.pos]) {
				p.pos++
			}
			return string(p.data[start:p.pos]), nil
		}
	}
	return "", fmt.Errorf("pgm: truncated header")
}

func (p *pgmParser) number(what string) (int, error) {
	tok, err := p.token()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("pgm: bad %s %q", what, tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (p *pgmParser) skipOne() error {
	if p.pos >= len(p.data) || !isSpace(p.data[p.pos]) {
		return fmt.Errorf("pgm: missing raster separator")
	}
	p.pos++
	return nil
}
