package fitsout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/astrogo/fitsio"
	"k8s.io/klog/v2"
)

// bitpix for the output planes. Raw samples are unsigned 16-bit; 32-bit
// integers carry them without BZERO offset games.
const planeBitpix = 32

// WriteFile serializes the cube to path: the R plane as the primary HDU,
// then G1, G2 and B as image extensions, each tagged with EXTNAME and
// FILTER and carrying the full assembled header.
func (c *Cube) WriteFile(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("write %s: output exists and overwrite is disabled", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("fits create: %w", err)
	}
	defer f.Close()

	for _, plane := range c.Planes {
		img := fitsio.NewImage(planeBitpix, []int{plane.Width, plane.Height})

		cards := []fitsio.Card{
			{Name: "EXTNAME", Value: plane.Name, Comment: "Bayer channel"},
			{Name: "FILTER", Value: "Photographic " + plane.Name[:1], Comment: "Color filter"},
		}
		for _, e := range c.Header.Entries() {
			cards = append(cards, fitsio.Card{Name: e.Key, Value: cardValue(e.Value), Comment: e.Comment})
		}

		if err := img.Header().Append(cards...); err != nil {
			img.Close()
			return fmt.Errorf("header %s: %w", plane.Name, err)
		}

		data := make([]int32, len(plane.Pix))
		for i, v := range plane.Pix {
			data[i] = int32(v)
		}
		if err := img.Write(&data); err != nil {
			img.Close()
			return fmt.Errorf("plane %s: %w", plane.Name, err)
		}

		if err := f.Write(img); err != nil {
			img.Close()
			return fmt.Errorf("write %s: %w", plane.Name, err)
		}
		img.Close()
	}

	klog.V(1).Infof("wrote %d planes to %s", len(c.Planes), path)
	return nil
}

// cardValue narrows entry values to the types the FITS card writer accepts.
func cardValue(v any) any {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case uint16:
		return int(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
