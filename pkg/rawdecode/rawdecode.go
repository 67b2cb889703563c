// Package rawdecode extracts the untouched Bayer mosaic from camera raw
// files by delegating to the external dcraw binary, the same way metadata
// extraction delegates to exiftool.
package rawdecode

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/bayer"
)

// ErrDecode marks a raw file that could not be decoded.
var ErrDecode = errors.New("raw decode failed")

// dcraw -c: write to stdout, -D: document mode (no demosaic, no scaling),
// -4: linear 16-bit, -t 0: no rotation. Output is a 16-bit P5 PGM.
var dcrawArgs = []string{"-c", "-D", "-4", "-t", "0"}

// Decoder runs dcraw to decode raw files.
type Decoder struct {
	bin string
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithBinary overrides the dcraw binary path.
func WithBinary(path string) Option {
	return func(d *Decoder) { d.bin = path }
}

// NewDecoder resolves the dcraw binary and returns a Decoder.
func NewDecoder(opts ...Option) (*Decoder, error) {
	d := &Decoder{bin: "dcraw"}
	for _, o := range opts {
		o(d)
	}

	path, err := exec.LookPath(d.bin)
	if err != nil {
		return nil, fmt.Errorf("dcraw not found (%q): %w", d.bin, err)
	}
	d.bin = path

	return d, nil
}

// Decode runs dcraw on path and parses the resulting mosaic.
func (d *Decoder) Decode(path string) (*bayer.Frame, error) {
	args := append(append([]string{}, dcrawArgs...), path)
	cmd := exec.Command(d.bin, args...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	klog.V(1).Infof("running %s %s", d.bin, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("dcraw %s: %s: %w", path, msg, ErrDecode)
	}

	f, err := ParsePGM(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("dcraw %s: %v: %w", path, err, ErrDecode)
	}

	klog.V(1).Infof("decoded %s: %dx%d mosaic", path, f.Width, f.Height)
	return f, nil
}
