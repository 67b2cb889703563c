package raw2fits

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// rawExts are the raw formats dcraw handles that we accept.
var rawExts = map[string]bool{
	".nef": true,
	".nrw": true,
	".cr2": true,
	".crw": true,
	".arw": true,
	".dng": true,
	".orf": true,
	".raf": true,
	".rw2": true,
	".pef": true,
	".srw": true,
}

// IsRaw reports whether path has a recognized raw-file extension.
func IsRaw(path string) bool {
	return rawExts[strings.ToLower(filepath.Ext(path))]
}

// Find expands a mix of file and directory arguments into the list of raw
// files to convert. Files are taken as given; directories are walked, with
// dotfiles skipped.
func Find(args []string) ([]string, error) {
	found := []string{}

	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return nil, fmt.Errorf("stat %s: %w", arg, err)

		case item.IsDir():
			fs, err := findInDir(arg)
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", arg, err)
			}
			found = append(found, fs...)

		default:
			found = append(found, arg)
		}
	}

	return found, nil
}

func findInDir(root string) ([]string, error) {
	found := []string{}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			base := filepath.Base(path)
			if base != "." && base[0] == '.' && path != root {
				return godirwalk.SkipThis
			}

			if !de.IsDir() && IsRaw(path) {
				klog.V(1).Infof("found %s", path)
				found = append(found, path)
			}

			return nil
		},
	})

	return found, err
}
