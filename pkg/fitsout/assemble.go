package fitsout

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/bayer"
)

// Version is stamped into the SWMODIFY card of every output.
var Version = "1.0.0"

// Recognized Metadata tags. Anything else in the map is ignored.
const (
	TagModel        = "Model"
	TagMake         = "Make"
	TagISO          = "ISO"
	TagExposureTime = "ExposureTime"
	TagDateTime     = "DateTimeOriginal"
	TagSoftware     = "Software"
	TagWhiteLevel   = "WhiteLevel"

	// Job-derived tags, filled in by the driver rather than the camera.
	TagFileName  = "FileName"
	TagObject    = "Object"
	TagImageType = "ImageType"
)

// Metadata maps recognized tag names to values. Absent tags are simply
// omitted from the assembled header, never defaulted.
type Metadata map[string]any

// Cube is an assembled multi-extension image: four channel planes in fixed
// R, G1, G2, B order plus one logical header covering all of them.
type Cube struct {
	Planes [4]bayer.Plane
	Header *Header
}

// Assemble splits a sensor frame into its four channel planes and builds the
// merged header: baseline cards derived from meta, then user entries with
// last-write-wins-by-key semantics. Invalid user entries are dropped with a
// warning; bad frame geometry fails the whole job.
func Assemble(f *bayer.Frame, p bayer.Pattern, meta Metadata, user []Entry) (*Cube, error) {
	planes, err := f.Split(p)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	h := NewHeader()
	h.AppendAll(baselineEntries(meta))

	for _, e := range user {
		if err := ValidateEntry(e); err != nil {
			klog.Warningf("dropping header entry %+v: %v", e, err)
			continue
		}
		h.Append(e)
	}

	return &Cube{Planes: planes, Header: h}, nil
}

// baselineEntries maps recognized metadata tags onto standard FITS keywords.
// The mapping follows common DSLR astro conventions: exposure, ISO, camera
// model, observation date/time, software and saturation level.
func baselineEntries(meta Metadata) []Entry {
	es := []Entry{}

	add := func(tag, key, comment string) {
		if v, ok := meta[tag]; ok {
			es = append(es, Entry{Key: key, Value: v, Comment: comment})
		}
	}

	add(TagExposureTime, "EXPOSURE", "Exposure time in seconds")
	add(TagISO, "ISOSPEED", "Camera ISO speed sensitivity rating")
	add(TagModel, "CAMERA", "Camera model")
	add(TagMake, "CAMMAKER", "Camera manufacturer")

	if v, ok := meta[TagDateTime].(string); ok {
		if date, tod, ok := splitExifDate(v); ok {
			es = append(es,
				Entry{Key: "DATE-OBS", Value: date, Comment: "YYYY/MM/DD"},
				Entry{Key: "TIME-OBS", Value: tod, Comment: "hh:mm:ss"},
			)
		} else {
			klog.Warningf("unparseable %s %q, omitting DATE-OBS", TagDateTime, v)
		}
	}

	add(TagWhiteLevel, "SATURATE", "Sensor saturation level")
	add(TagSoftware, "SWCREATE", "")

	es = append(es, Entry{Key: "ORIGIN", Value: "raw2fits", Comment: "FITS file originator"})
	es = append(es, Entry{Key: "SWMODIFY", Value: "raw2fits v" + Version, Comment: ""})

	add(TagFileName, "FILENAME", "original filename")
	add(TagImageType, "IMAGETYP", "image calibration class or OBJECT")
	add(TagObject, "OBJECT", "Target object name")

	return es
}

// splitExifDate splits an EXIF "2006:01:02 15:04:05" timestamp into a
// "2006/01/02" date and a "15:04:05" time of day.
func splitExifDate(v string) (date, tod string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(v), " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.ReplaceAll(parts[0], ":", "/"), parts[1], true
}
