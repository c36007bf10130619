package dataset

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"

	"github.com/tsawler/go-mvtec/vision/preprocessing"
)

// MVTecDataset holds one split of an MVTec AD category in memory.
//
// The directory layout is
//
//	<root>/<category>/train/good/<files>
//	<root>/<category>/test/good/<files>
//	<root>/<category>/test/<defect-type>/<files>
//
// All images are decoded when the dataset is created; Get only converts,
// resizes and transforms a stored sample.
type MVTecDataset struct {
	cfg         Config
	split       Split
	samples     *Samples
	labels      []Label
	paths       []string
	defectTypes []string
}

// sampleFile is a file selected for loading together with its label
type sampleFile struct {
	path  string
	label Label
}

// NewMVTecDataset loads the split selected by cfg. Either every file of the
// split is decoded and stacked, or an error is returned and nothing is kept.
func NewMVTecDataset(cfg Config) (*MVTecDataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Interpolation = cfg.Interpolation.OrDefault()

	fsys := cfg.fs()
	logger := cfg.logger()
	split := cfg.Split()
	splitDir := filepath.Join(cfg.root(), cfg.Category, split.Dir())

	var (
		files       []sampleFile
		defectTypes []string
		err         error
	)
	if split == Train {
		files, err = cfg.listFiles(fsys, filepath.Join(splitDir, GoodDir), Good)
	} else {
		files, defectTypes, err = cfg.listTestFiles(fsys, splitDir)
	}
	if err != nil {
		return nil, err
	}

	d := &MVTecDataset{
		cfg:         cfg,
		split:       split,
		labels:      make([]Label, 0, len(files)),
		paths:       make([]string, 0, len(files)),
		defectTypes: defectTypes,
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(cfg.progressWriter()),
			progressbar.OptionSetDescription(fmt.Sprintf("loading %s/%s", cfg.Category, split)),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionClearOnFinish(),
		)
	}

	builder := newSamplesBuilder(len(files))
	for _, f := range files {
		pix, h, w, c, err := cfg.loadImage(fsys, f.path)
		if err != nil {
			return nil, err
		}
		if err := builder.add(f.path, pix, h, w, c); err != nil {
			return nil, fmt.Errorf("category %q, split %s: %w", cfg.Category, split, err)
		}
		d.labels = append(d.labels, f.label)
		d.paths = append(d.paths, f.path)

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	d.samples = builder.build()

	n, h, w, c := d.samples.Shape()
	if n == 0 {
		logger.Warn().
			Str("category", cfg.Category).
			Str("split", split.String()).
			Str("dir", splitDir).
			Msg("no samples found")
	}
	logger.Info().
		Str("category", cfg.Category).
		Str("split", split.String()).
		Ints("shape", []int{n, h, w, c}).
		Msgf("original data shape: (N, H, W, C) %s", d.samples)

	return d, nil
}

// listFiles returns the accepted regular files of dir in listing order
func (c Config) listFiles(fsys afero.Fs, dir string, label Label) ([]sampleFile, error) {
	entries, err := c.readDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []sampleFile
	for _, entry := range entries {
		if entry.IsDir() || !c.acceptsFile(entry.Name()) {
			continue
		}
		files = append(files, sampleFile{
			path:  filepath.Join(dir, entry.Name()),
			label: label,
		})
	}

	c.logger().Debug().
		Str("dir", dir).
		Stringer("label", label).
		Int("files", len(files)).
		Msg("listed sample files")
	return files, nil
}

// listTestFiles walks every immediate subdirectory of the test split. A
// folder named "good" yields Good labels; every other folder is a defect type.
func (c Config) listTestFiles(fsys afero.Fs, testDir string) ([]sampleFile, []string, error) {
	entries, err := c.readDir(fsys, testDir)
	if err != nil {
		return nil, nil, err
	}

	var (
		files       []sampleFile
		defectTypes []string
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label := labelForDir(entry.Name())
		if label == Defective {
			defectTypes = append(defectTypes, entry.Name())
		}

		subFiles, err := c.listFiles(fsys, filepath.Join(testDir, entry.Name()), label)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, subFiles...)
	}
	return files, defectTypes, nil
}

// readDir lists dir sorted by name, mapping a missing directory to ErrPathNotFound
func (c Config) readDir(fsys afero.Fs, dir string) ([]fs.FileInfo, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (category %q, split %s): %w",
				ErrPathNotFound, dir, c.Category, c.Split(), err)
		}
		return nil, fmt.Errorf("failed to list %s (category %q, split %s): %w",
			dir, c.Category, c.Split(), err)
	}
	return entries, nil
}

// loadImage decodes one file into an HWC uint8 buffer
func (c Config) loadImage(fsys afero.Fs, path string) (pix []uint8, h, w, ch int, err error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("failed to open %s (category %q, split %s): %w",
			path, c.Category, c.Split(), err)
	}
	defer file.Close()

	img, format, err := preprocessing.Decode(file)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%w: %s (category %q, split %s): %w",
			ErrDecode, path, c.Category, c.Split(), err)
	}

	pix, h, w, ch = preprocessing.ToSample(img)
	c.logger().Trace().
		Str("path", path).
		Str("format", format).
		Ints("shape", []int{h, w, ch}).
		Msg("decoded sample")
	return pix, h, w, ch, nil
}

// Len returns the number of items in the dataset
func (d *MVTecDataset) Len() int {
	return len(d.labels)
}

// Get returns the image and label at index. The stored sample is converted
// to an image, resized when Config.Resize is set, and then passed through
// Transform and TargetTransform.
func (d *MVTecDataset) Get(index int) (image.Image, Label, error) {
	if index < 0 || index >= len(d.labels) {
		return nil, 0, fmt.Errorf("%w: index %d out of range [0, %d)", ErrIndexOutOfRange, index, len(d.labels))
	}

	pix, err := d.samples.At(index)
	if err != nil {
		return nil, 0, err
	}
	_, h, w, c := d.samples.Shape()
	img, err := preprocessing.FromSample(pix, h, w, c)
	if err != nil {
		return nil, 0, fmt.Errorf("sample %d: %w", index, err)
	}

	if d.cfg.Resize > 0 {
		img, err = preprocessing.Resize(img, d.cfg.Resize, d.cfg.Interpolation)
		if err != nil {
			return nil, 0, fmt.Errorf("sample %d: %w", index, err)
		}
	}
	if d.cfg.Transform != nil {
		img = d.cfg.Transform(img)
	}

	label := d.labels[index]
	if d.cfg.TargetTransform != nil {
		label = d.cfg.TargetTransform(label)
	}

	return img, label, nil
}

// Label returns the raw label at index, without TargetTransform
func (d *MVTecDataset) Label(index int) (Label, error) {
	if index < 0 || index >= len(d.labels) {
		return 0, fmt.Errorf("%w: index %d out of range [0, %d)", ErrIndexOutOfRange, index, len(d.labels))
	}
	return d.labels[index], nil
}

// Labels returns a copy of all raw labels
func (d *MVTecDataset) Labels() []Label {
	out := make([]Label, len(d.labels))
	copy(out, d.labels)
	return out
}

// Path returns the file a sample was loaded from
func (d *MVTecDataset) Path(index int) (string, error) {
	if index < 0 || index >= len(d.paths) {
		return "", fmt.Errorf("%w: index %d out of range [0, %d)", ErrIndexOutOfRange, index, len(d.paths))
	}
	return d.paths[index], nil
}

// Samples returns the stacked NHWC array. It must be treated as read-only.
func (d *MVTecDataset) Samples() *Samples {
	return d.samples
}

// Config returns the configuration the dataset was built with
func (d *MVTecDataset) Config() Config {
	return d.cfg
}

// Split returns the loaded split
func (d *MVTecDataset) Split() Split {
	return d.split
}

// Category returns the loaded category name
func (d *MVTecDataset) Category() string {
	return d.cfg.Category
}

// DefectTypes returns the defect folders of the test split in load order
func (d *MVTecDataset) DefectTypes() []string {
	out := make([]string, len(d.defectTypes))
	copy(out, d.defectTypes)
	return out
}

// LabelDistribution returns the number of samples per label
func (d *MVTecDataset) LabelDistribution() map[Label]int {
	dist := make(map[Label]int)
	for _, label := range d.labels {
		dist[label]++
	}
	return dist
}

// Subset creates a dataset holding copies of the samples at indices, in
// the given order. It keeps the parent's resize and transform settings.
func (d *MVTecDataset) Subset(indices []int) (*MVTecDataset, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(d.labels) {
			return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrIndexOutOfRange, idx, len(d.labels))
		}
	}

	subset := &MVTecDataset{
		cfg:         d.cfg,
		split:       d.split,
		samples:     d.samples.gather(indices),
		labels:      make([]Label, len(indices)),
		paths:       make([]string, len(indices)),
		defectTypes: d.defectTypes,
	}
	for i, idx := range indices {
		subset.labels[i] = d.labels[idx]
		subset.paths[i] = d.paths[idx]
	}
	return subset, nil
}

// String returns a string representation of the dataset
func (d *MVTecDataset) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("MVTecDataset %s/%s: %d samples, shape %s\n",
		d.cfg.Category, d.split, d.Len(), d.samples))

	dist := d.LabelDistribution()
	labels := make([]Label, 0, len(dist))
	for label := range dist {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	for _, label := range labels {
		sb.WriteString(fmt.Sprintf("  %s: %d samples\n", label, dist[label]))
	}

	return sb.String()
}

// MarshalZerologObject lets the dataset be logged with Object()
func (d *MVTecDataset) MarshalZerologObject(e *zerolog.Event) {
	n, h, w, c := d.samples.Shape()
	e.Str("category", d.cfg.Category).
		Str("split", d.split.String()).
		Ints("shape", []int{n, h, w, c}).
		Int("resize", d.cfg.Resize)
}
