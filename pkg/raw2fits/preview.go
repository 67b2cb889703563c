package raw2fits

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/fitsout"
)

var (
	previewLongEdge = 1600
	previewQuality  = 85

	// previewSaturation is the stretch level when EXIF gives no white
	// level: 14-bit, typical for DSLR raw.
	previewSaturation = float64(1 << 14)
)

// writePreview renders a quick-look JPEG from the cube: an RGB composite at
// the planes' (half) resolution, green taken as the mean of G1 and G2,
// stretched linearly against the saturation level.
func writePreview(cube *fitsout.Cube, path string) error {
	w, h := cube.Planes[0].Width, cube.Planes[0].Height

	sat := previewSaturation
	if e, ok := cube.Header.Get("SATURATE"); ok {
		switch v := e.Value.(type) {
		case int:
			sat = float64(v)
		case int64:
			sat = float64(v)
		case float64:
			sat = v
		}
	}

	scale := func(v float64) uint8 {
		s := v * 255 / sat
		if s > 255 {
			s = 255
		}
		return uint8(s)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r, g1, g2, b := cube.Planes[0], cube.Planes[1], cube.Planes[2], cube.Planes[3]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			img.SetRGBA(x, y, color.RGBA{
				R: scale(float64(r.Pix[i])),
				G: scale((float64(g1.Pix[i]) + float64(g2.Pix[i])) / 2),
				B: scale(float64(b.Pix[i])),
				A: 255,
			})
		}
	}

	var out image.Image = img
	if w > previewLongEdge || h > previewLongEdge {
		nw, nh := w, h
		if w >= h {
			nw = previewLongEdge
			nh = h * previewLongEdge / w
		} else {
			nh = previewLongEdge
			nw = w * previewLongEdge / h
		}
		out = transform.Resize(img, nw, nh, transform.Lanczos)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}

	if err := imgio.Save(path, out, imgio.JPEGEncoder(previewQuality)); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	klog.V(1).Infof("wrote preview %s", path)
	return nil
}

// previewPath puts the quick-look next to the FITS output.
func previewPath(fitsPath string) string {
	return strings.TrimSuffix(fitsPath, filepath.Ext(fitsPath)) + ".jpg"
}
