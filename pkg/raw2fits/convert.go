package raw2fits

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/bayer"
	"github.com/openastro/raw2fits/pkg/fitsout"
	"github.com/openastro/raw2fits/pkg/rawdecode"
)

// decoder produces a sensor frame from a raw file.
type decoder interface {
	Decode(path string) (*bayer.Frame, error)
}

// Converter runs conversion jobs. It holds no per-job state, so Convert is
// safe to call concurrently for distinct paths.
type Converter struct {
	c        *Config
	dec      decoder
	readMeta metadataFunc
	et       *exiftool.Exiftool
}

// NewConverter wires up the external collaborators: dcraw for pixel
// decoding (required) and exiftool for metadata, falling back to native
// EXIF parsing when the binary is unavailable.
func NewConverter(c *Config) (*Converter, error) {
	dec, err := rawdecode.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	cv := &Converter{c: c, dec: dec}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool unavailable, using native EXIF parsing: %v", err)
		cv.readMeta = nativeReader()
		return cv, nil
	}

	cv.et = et
	cv.readMeta = exiftoolReader(et)
	return cv, nil
}

// Close releases the exiftool instance, if any.
func (cv *Converter) Close() error {
	if cv.et != nil {
		return cv.et.Close()
	}
	return nil
}

// Convert runs one job: decode, extract metadata, assemble, write.
func (cv *Converter) Convert(path string) error {
	out := OutputPath(cv.c.OutDir, path)

	frame, err := cv.dec.Decode(path)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	meta, err := cv.readMeta(path)
	if err != nil {
		// A raw file without readable EXIF still converts; the baseline
		// header just ends up sparse.
		klog.Warningf("metadata for %s: %v", path, err)
		meta = fitsout.Metadata{}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	object, imageType := objectFromStem(stem, cv.c.ObjectRegex)
	meta[fitsout.TagFileName] = strings.TrimSuffix(path, filepath.Ext(path))
	meta[fitsout.TagObject] = object
	meta[fitsout.TagImageType] = imageType

	cube, err := fitsout.Assemble(frame, cv.c.Pattern, meta, cv.c.UserHeader)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if err := cube.WriteFile(out, cv.c.Overwrite); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	klog.Infof("converted %s -> %s", path, out)

	if cv.c.Preview {
		pp := previewPath(out)
		if err := writePreview(cube, pp); err != nil {
			klog.Warningf("preview %s: %v", pp, err)
		}
	}

	return nil
}

// ConvertAll converts paths sequentially. Individual failures are reported
// and skipped; the batch only fails when every job failed.
func (cv *Converter) ConvertAll(paths []string) error {
	if len(paths) == 0 {
		klog.Warningf("no raw files to convert")
		return nil
	}

	failed := 0
	for _, p := range paths {
		if err := cv.Convert(p); err != nil {
			klog.Errorf("convert %s: %v", p, err)
			failed++
		}
	}

	if failed == len(paths) {
		return fmt.Errorf("all %d conversions failed", failed)
	}
	if failed > 0 {
		klog.Warningf("%d of %d conversions failed", failed, len(paths))
	}
	return nil
}

// OutputPath derives the output file for an input: the raw extension is
// replaced with .fits and outDir, when set, is prepended. With outDir
// "baz", "foo/00.nef" becomes "baz/foo/00.fits".
func OutputPath(outDir, path string) string {
	root := strings.TrimSuffix(path, filepath.Ext(path))
	if outDir == "" {
		return root + ".fits"
	}
	return filepath.Join(outDir, strings.TrimPrefix(root, string(filepath.Separator))+".fits")
}

// objectFromStem derives the OBJECT and IMAGETYP keywords from a file stem.
// Group 1 of re names the object; stems mentioning BIAS, FLAT or DARK are
// calibration frames.
func objectFromStem(stem string, re *regexp.Regexp) (object, imageType string) {
	if re == nil {
		re = DefaultObjectRegex
	}

	object = stem
	m := re.FindStringSubmatch(stem)
	if m != nil && len(m) > 1 && m[1] != "" {
		object = m[1]
	} else {
		klog.Warningf("object regex failed for %q, using whole stem", stem)
	}

	std := strings.ToUpper(strings.TrimSpace(object))
	imageType = "OBJECT"
	for _, s := range []string{"BIAS", "FLAT", "DARK"} {
		if strings.Contains(std, s) {
			imageType = s
			break
		}
	}

	return object, imageType
}
