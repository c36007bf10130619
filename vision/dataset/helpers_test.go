package dataset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-mvtec/vision/preprocessing"
)

const testRoot = "/data/mvtec"

// layout maps a split-relative folder ("train/good", "test/crack") to the
// number of images written into it
type layout map[string]int

// writeCategory creates <root>/<category>/<folder>/image_NNN.png files of
// the given size. Pixel values encode the folder's position in sorted order
// and the image number, so fixtures are identical on every run.
func writeCategory(t *testing.T, fsys afero.Fs, root, category string, l layout, size int, gray bool) {
	t.Helper()
	for folder, dir := range l.dirs() {
		full := filepath.Join(root, category, dir)
		require.NoError(t, fsys.MkdirAll(full, 0755))
		for i := 0; i < l[dir]; i++ {
			path := filepath.Join(full, fmt.Sprintf("image_%03d.png", i))
			writePNG(t, fsys, path, size, size, uint8(folder*40+i), gray)
		}
	}
}

// dirs returns the folders of l in sorted order
func (l layout) dirs() []string {
	dirs := make([]string, 0, len(l))
	for dir := range l {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// writePNG writes a uniform PNG with value v
func writePNG(t *testing.T, fsys afero.Fs, path string, w, h int, v uint8, gray bool) {
	t.Helper()
	var img image.Image
	if gray {
		g := image.NewGray(image.Rect(0, 0, w, h))
		for i := range g.Pix {
			g.Pix[i] = v
		}
		img = g
	} else {
		rgb := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				rgb.Set(x, y, color.RGBA{v, uint8(x), uint8(y), 255})
			}
		}
		img = rgb
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fsys, path, buf.Bytes(), 0644))
}

// bottleFS builds the bottle scenario: 3 train images, 2 good and 4 cracked test images
func bottleFS(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeCategory(t, fsys, testRoot, "bottle", layout{
		"train/good": 3,
		"test/good":  2,
		"test/crack": 4,
	}, 16, false)
	return fsys
}

// quietConfig returns a config that reads fsys and discards logs
func quietConfig(fsys afero.Fs, category string, train bool) Config {
	logger := zerolog.Nop()
	return Config{
		Root:          testRoot,
		Category:      category,
		Train:         train,
		Interpolation: preprocessing.Bilinear,
		Fs:            fsys,
		Logger:        &logger,
	}
}
