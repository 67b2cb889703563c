// raw2fits converts camera raw files into multi-extension FITS images,
// splitting the Bayer mosaic into R, G1, G2 and B planes and carrying EXIF
// metadata into the FITS header.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"sync"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/openastro/raw2fits/pkg/bayer"
	"github.com/openastro/raw2fits/pkg/fitsout"
	"github.com/openastro/raw2fits/pkg/raw2fits"
)

var (
	outDir      = flag.String("out", "", "folder to prefix output paths with")
	headerFile  = flag.String("header", "", "JSON or YAML file of [key, value] or [key, value, comment] header rows")
	pattern     = flag.String("pattern", "RGGB", "Bayer layout of the sensor: any one-R/two-G/one-B permutation, e.g. RGGB, BGGR, GBRG, GRBG, RGBG")
	objectRegex = flag.String("object-regex", "", "regex deriving the OBJECT keyword from the file stem (group 1)")
	overwrite   = flag.Bool("overwrite", true, "overwrite existing output files")
	preview     = flag.Bool("preview", false, "also write quick-look JPEGs next to the FITS outputs")
	watchFlag   = flag.Bool("watch", false, "watch the given directories and convert raw files as they appear")
	recursive   = flag.Bool("recursive", false, "include subdirectories in watch mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: raw2fits [flags] <file-or-dir> ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := config()
	if err != nil {
		klog.Exitf("config: %v", err)
	}

	cv, err := raw2fits.NewConverter(c)
	if err != nil {
		klog.Exitf("setup failed: %v", err)
	}
	defer cv.Close()

	if *watchFlag {
		watch(cv, flag.Args())
		return
	}

	paths, err := raw2fits.Find(flag.Args())
	if err != nil {
		klog.Exitf("find failed: %v", err)
	}

	if err := cv.ConvertAll(paths); err != nil {
		klog.Exitf("convert failed: %v", err)
	}
}

func config() (*raw2fits.Config, error) {
	p, err := bayer.ParsePattern(*pattern)
	if err != nil {
		return nil, err
	}

	c := &raw2fits.Config{
		OutDir:    *outDir,
		Pattern:   p,
		Overwrite: *overwrite,
		Preview:   *preview,
		Recursive: *recursive,
	}

	if *headerFile != "" {
		c.UserHeader, err = fitsout.LoadHeaderFile(*headerFile)
		if err != nil {
			return nil, err
		}
		klog.Infof("loaded %d header entries from %s", len(c.UserHeader), *headerFile)
	}

	if *objectRegex != "" {
		c.ObjectRegex, err = regexp.Compile(*objectRegex)
		if err != nil {
			return nil, fmt.Errorf("object-regex: %w", err)
		}
	}

	return c, nil
}

// watch runs one watch session per directory argument until interrupted.
func watch(cv *raw2fits.Converter, roots []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, root := range roots {
		wg.Add(1)
		go func(root string) {
			defer wg.Done()
			if err := cv.Watch(ctx, root); err != nil {
				klog.Errorf("watch %s failed: %v", root, err)
				stop()
			}
		}(root)
	}
	wg.Wait()
}
