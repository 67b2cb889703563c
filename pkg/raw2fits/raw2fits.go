// Package raw2fits drives the conversion of camera raw files into
// multi-extension FITS images.
package raw2fits

import (
	"regexp"

	"github.com/openastro/raw2fits/pkg/bayer"
	"github.com/openastro/raw2fits/pkg/fitsout"
)

// DefaultObjectRegex extracts the target object name from a file stem like
// "obscode-objectname_details": group 1 is the object.
var DefaultObjectRegex = regexp.MustCompile(`(?:.+-)?([^_\s]+)(?:_.+)?`)

// Config holds conversion settings shared by batch and watch mode.
type Config struct {
	// OutDir is prepended to derived output paths; empty writes next to
	// the input.
	OutDir string

	// Pattern is the sensor's Bayer layout.
	Pattern bayer.Pattern

	// UserHeader entries are merged on top of the EXIF-derived baseline,
	// last-write-wins by key.
	UserHeader []fitsout.Entry

	// ObjectRegex derives the OBJECT keyword from the input file stem.
	ObjectRegex *regexp.Regexp

	Overwrite bool
	Preview   bool

	// Recursive includes subdirectories in watch mode.
	Recursive bool
}
