package dataset

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/tsawler/go-mvtec/vision/preprocessing"
)

// Config selects a category split and how its samples are served.
type Config struct {
	// Root directory containing one folder per category (bottle, cable, ...)
	Root string `env:"MVTEC_ROOT"`
	// Category folder to load
	Category string `env:"MVTEC_CATEGORY" envDefault:"carpet"`
	// Train loads <category>/train/good, otherwise <category>/test/*
	Train bool `env:"MVTEC_TRAIN" envDefault:"true"`
	// Resize is the output height and width of Get; 0 disables resizing
	Resize int `env:"MVTEC_RESIZE"`
	// Interpolation used by Resize
	Interpolation preprocessing.Interpolation `env:"MVTEC_INTERPOLATION" envDefault:"bilinear"`
	// Extensions restricts loading to files with these suffixes; empty loads every file
	Extensions []string `env:"MVTEC_EXTENSIONS" envSeparator:","`
	// Progress shows a progress bar while decoding
	Progress bool `env:"MVTEC_PROGRESS"`

	// Transform is applied to the (possibly resized) image returned by Get
	Transform func(image.Image) image.Image `env:"-"`
	// TargetTransform is applied to the label returned by Get
	TargetTransform func(Label) Label `env:"-"`

	Fs             afero.Fs        `env:"-"`
	Logger         *zerolog.Logger `env:"-"`
	ProgressWriter io.Writer       `env:"-"`
}

// LoadConfig reads a Config from the environment. Any dotenv files given are
// loaded first; without arguments a .env in the working directory is used
// when present.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("failed to load env files %v: %w", envFiles, err)
		}
	} else if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, continuing with environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse dataset config: %w", err)
	}
	return cfg, nil
}

// Validate reports configurations that cannot describe a split
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is empty", ErrInvalidConfig)
	}
	if c.Category == "" {
		return fmt.Errorf("%w: category is empty", ErrInvalidConfig)
	}
	if c.Category != filepath.Base(c.Category) || c.Category == "." || c.Category == ".." {
		return fmt.Errorf("%w: category %q must be a single directory name", ErrInvalidConfig, c.Category)
	}
	if c.Resize < 0 {
		return fmt.Errorf("%w: resize must not be negative, got %d", ErrInvalidConfig, c.Resize)
	}
	if c.Resize > 0 && !c.Interpolation.Valid() {
		return fmt.Errorf("%w: unsupported interpolation %s", ErrInvalidConfig, c.Interpolation)
	}
	return nil
}

// Split returns Train or Test according to the Train flag
func (c Config) Split() Split {
	if c.Train {
		return Train
	}
	return Test
}

func (c Config) fs() afero.Fs {
	if c.Fs != nil {
		return c.Fs
	}
	return afero.NewOsFs()
}

func (c Config) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

func (c Config) progressWriter() io.Writer {
	if c.ProgressWriter != nil {
		return c.ProgressWriter
	}
	return os.Stderr
}

// root expands a leading ~ when reading from the OS filesystem
func (c Config) root() string {
	if c.Fs != nil || (c.Root != "~" && !strings.HasPrefix(c.Root, "~/")) {
		return c.Root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return c.Root
	}
	return filepath.Join(home, strings.TrimPrefix(c.Root, "~"))
}

// acceptsFile applies the Extensions filter
func (c Config) acceptsFile(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range c.Extensions {
		want = strings.ToLower(strings.TrimSpace(want))
		if want != "" && !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}
