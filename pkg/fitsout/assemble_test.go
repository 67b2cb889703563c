package fitsout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/require"

	"github.com/openastro/raw2fits/pkg/bayer"
)

func testFrame(w, h int) *bayer.Frame {
	pix := make([]uint16, w*h)
	for i := range pix {
		pix[i] = uint16(i)
	}
	return &bayer.Frame{Pix: pix, Width: w, Height: h}
}

func testMeta() Metadata {
	return Metadata{
		TagModel:        "NIKON D810A",
		TagISO:          int64(800),
		TagExposureTime: 30.0,
		TagDateTime:     "2026:08:20 23:41:05",
		TagWhiteLevel:   int64(16383),
		TagObject:       "M42",
		TagImageType:    "OBJECT",
		TagFileName:     "obs-M42_120s",
	}
}

func TestAssembleBaseline(t *testing.T) {
	cube, err := Assemble(testFrame(6, 4), bayer.DefaultPattern, testMeta(), nil)
	require.NoError(t, err)

	for key, want := range map[string]any{
		"EXPOSURE": 30.0,
		"ISOSPEED": int64(800),
		"CAMERA":   "NIKON D810A",
		"DATE-OBS": "2026/08/20",
		"TIME-OBS": "23:41:05",
		"SATURATE": int64(16383),
		"ORIGIN":   "raw2fits",
		"OBJECT":   "M42",
		"IMAGETYP": "OBJECT",
	} {
		e, ok := cube.Header.Get(key)
		require.True(t, ok, key)
		require.Equal(t, want, e.Value, key)
	}

	for i, name := range bayer.PlaneNames {
		require.Equal(t, name, cube.Planes[i].Name)
		require.Equal(t, 3, cube.Planes[i].Width)
		require.Equal(t, 2, cube.Planes[i].Height)
	}
}

// Missing metadata tags are omitted from the header, never defaulted.
func TestAssembleOmitsAbsentTags(t *testing.T) {
	cube, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, Metadata{}, nil)
	require.NoError(t, err)

	for _, key := range []string{"EXPOSURE", "ISOSPEED", "CAMERA", "DATE-OBS", "SATURATE", "OBJECT"} {
		if _, ok := cube.Header.Get(key); ok {
			t.Errorf("%s present for empty metadata, want omitted", key)
		}
	}

	// Provenance cards are always present.
	if _, ok := cube.Header.Get("ORIGIN"); !ok {
		t.Error("ORIGIN missing")
	}
}

func TestAssembleUserOverride(t *testing.T) {
	meta := testMeta()
	meta[TagObject] = "Unknown"

	user := []Entry{
		{Key: "TELESCOP", Value: "Meade LX200", Comment: "Model"},
		{Key: "OBSERVER", Value: "Your name here"},
		{Key: "OBJECT", Value: "M42"},
	}

	cube, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, meta, user)
	require.NoError(t, err)

	baselinePos := cube.Header.Index("OBJECT")

	e, ok := cube.Header.Get("OBJECT")
	require.True(t, ok)
	require.Equal(t, "M42", e.Value)

	// Override occupies the baseline entry's position.
	cube2, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, meta, nil)
	require.NoError(t, err)
	require.Equal(t, cube2.Header.Index("OBJECT"), baselinePos)
}

// One bad user entry is dropped; the remaining entries still land.
func TestAssembleDropsInvalidEntry(t *testing.T) {
	user := []Entry{
		{Key: "TELESCOP", Value: "Meade LX200", Comment: "Model"},
		{Key: "OBSERVER", Value: "Your name here"},
		{Key: "OBJECT", Value: "M42"},
		{Key: "", Value: "dropped"},
	}

	cube, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, Metadata{}, user)
	require.NoError(t, err)

	for _, key := range []string{"TELESCOP", "OBSERVER", "OBJECT"} {
		if _, ok := cube.Header.Get(key); !ok {
			t.Errorf("%s missing", key)
		}
	}
	if _, ok := cube.Header.Get(""); ok {
		t.Error("empty key accepted")
	}
}

func TestAssembleMalformedFrame(t *testing.T) {
	_, err := Assemble(testFrame(5, 4), bayer.DefaultPattern, testMeta(), nil)
	if !errors.Is(err, bayer.ErrMalformedFrame) {
		t.Fatalf("Assemble = %v, want ErrMalformedFrame", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	cube, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, testMeta(), []Entry{
		{Key: "TELESCOP", Value: "Meade LX200", Comment: "Model"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "obs.fits")
	require.NoError(t, cube.WriteFile(path, true))

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	fit, err := fitsio.Open(r)
	require.NoError(t, err)
	defer fit.Close()

	require.Equal(t, 4, len(fit.HDUs()))

	for i, name := range bayer.PlaneNames {
		hdr := fit.HDU(i).Header()

		c := hdr.Get("EXTNAME")
		require.NotNil(t, c, "EXTNAME on HDU %d", i)
		require.Equal(t, name, c.Value)

		// Every HDU carries the full logical header.
		for _, key := range []string{"CAMERA", "TELESCOP", "OBJECT", "FILTER"} {
			require.NotNil(t, hdr.Get(key), "%s on HDU %d", key, i)
		}
	}

	img, ok := fit.HDU(0).(fitsio.Image)
	require.True(t, ok)

	// Read wants a pre-allocated slice covering NAXIS1 x NAXIS2.
	data := make([]int32, 4)
	require.NoError(t, img.Read(&data))
	require.Len(t, data, 4)

	// R plane of an RGGB 4x4 index frame: samples 0, 2, 8, 10.
	require.Equal(t, []int32{0, 2, 8, 10}, data)
}

func TestWriteFileNoOverwrite(t *testing.T) {
	cube, err := Assemble(testFrame(4, 4), bayer.DefaultPattern, Metadata{}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "obs.fits")
	require.NoError(t, cube.WriteFile(path, true))
	require.Error(t, cube.WriteFile(path, false))
	require.NoError(t, cube.WriteFile(path, true))
}
