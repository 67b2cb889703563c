package raw2fits

import (
	"fmt"
	"os"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/fitsout"
)

// metadataFunc extracts the recognized metadata tags from one file.
type metadataFunc func(path string) (fitsout.Metadata, error)

// exiftoolReader wraps a running exiftool instance.
func exiftoolReader(et *exiftool.Exiftool) metadataFunc {
	return func(path string) (fitsout.Metadata, error) {
		fis := et.ExtractMetadata(path)
		fi := fis[0]
		if fi.Err != nil {
			return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
		}
		return metadataFromFields(path, fi), nil
	}
}

// metadataFromFields maps exiftool output onto the recognized tag set.
// Missing tags are logged and omitted.
func metadataFromFields(path string, fi exiftool.FileMetadata) fitsout.Metadata {
	md := fitsout.Metadata{}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	if v, err := fi.GetString("Model"); err == nil {
		md[fitsout.TagModel] = v
	} else {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}

	if v, err := fi.GetString("Make"); err == nil {
		md[fitsout.TagMake] = v
	}

	if v, err := fi.GetString("Software"); err == nil {
		md[fitsout.TagSoftware] = v
	}

	if v, err := fi.GetInt("ISO"); err == nil {
		md[fitsout.TagISO] = v
	} else {
		klog.V(1).Infof("unable to get ISO for %s: %v", path, err)
	}

	if v, err := fi.GetFloat("ExposureTime"); err == nil {
		md[fitsout.TagExposureTime] = v
	} else {
		klog.V(1).Infof("unable to get exposure time for %s: %v", path, err)
	}

	if v, err := fi.GetString("DateTimeOriginal"); err == nil {
		md[fitsout.TagDateTime] = v
	} else {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
	}

	if v, err := fi.GetInt("WhiteLevel"); err == nil {
		md[fitsout.TagWhiteLevel] = v
	}

	return md
}

// nativeReader parses EXIF directly with goexif. NEF and most other raw
// formats are TIFF-framed, so this works without any external binary, but
// sees fewer tags than exiftool (no WhiteLevel in particular).
func nativeReader() metadataFunc {
	return func(path string) (fitsout.Metadata, error) {
		r, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer r.Close()

		ex, err := exif.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("exif parsing %s: %w", path, err)
		}

		md := fitsout.Metadata{}

		if tag, err := ex.Get(exif.Model); err == nil {
			if v, err := tag.StringVal(); err == nil {
				md[fitsout.TagModel] = v
			}
		}

		if tag, err := ex.Get(exif.Make); err == nil {
			if v, err := tag.StringVal(); err == nil {
				md[fitsout.TagMake] = v
			}
		}

		if tag, err := ex.Get(exif.Software); err == nil {
			if v, err := tag.StringVal(); err == nil {
				md[fitsout.TagSoftware] = v
			}
		}

		if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
			if v, err := tag.Int64(0); err == nil {
				md[fitsout.TagISO] = v
			}
		}

		if tag, err := ex.Get(exif.ExposureTime); err == nil {
			if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
				md[fitsout.TagExposureTime] = float64(num) / float64(denom)
			}
		}

		if tag, err := ex.Get(exif.DateTimeOriginal); err == nil {
			if v, err := tag.StringVal(); err == nil {
				md[fitsout.TagDateTime] = v
			}
		}

		return md, nil
	}
}
