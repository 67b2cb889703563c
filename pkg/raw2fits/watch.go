package raw2fits

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Watch converts raw files as they appear under root, until ctx is done.
// Each event is handled statelessly: everything is re-derived from the
// event's path, so duplicate events just re-convert. Per-file failures are
// logged and skipped; a watch-backend failure ends the session.
func (cv *Converter) Watch(ctx context.Context, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	dirs := []string{root}
	if cv.c.Recursive {
		dirs, err = subdirs(root)
		if err != nil {
			return fmt.Errorf("walk %s: %w", root, err)
		}
	}

	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	klog.Infof("watching %d dirs under %s ...", len(dirs), root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %s", event)

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				// Rename events fire for the vanished old name.
				klog.V(1).Infof("skipping %s: %v", event.Name, err)
				continue
			}

			if info.IsDir() {
				if cv.c.Recursive {
					if err := w.Add(event.Name); err != nil {
						klog.Warningf("watch %s: %v", event.Name, err)
					}
				}
				continue
			}

			if !IsRaw(event.Name) {
				continue
			}

			if err := cv.Convert(event.Name); err != nil {
				klog.Errorf("convert %s: %v", event.Name, err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch backend: %w", err)
		}
	}
}

func subdirs(root string) ([]string, error) {
	dirs := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		},
	})
	return dirs, err
}
