package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "docshelf/internal/platform/errors"
	"docshelf/internal/platform/slug"
)

const (
	DefaultParallelism    = 4
	DefaultExtractTimeout = 30 * time.Second
	DefaultDecodeTimeout  = 30 * time.Second
)

const (
	ValidateOff     = "off"
	ValidateRelaxed = "relaxed"
	ValidateStrict  = "strict"
)

type ViewerConfig struct {
	ShowChrome bool
}

type DocumentServiceConfig struct {
	// Plugin is the path of an out-of-process document service binary.
	// Empty means the in-process service.
	Plugin   string
	Validate string
}

type Config struct {
	DataDir    string
	ExtractDir string
	DBPath     string
	LogFile    string
	LogLevel   string

	// AssetsDir, when set, replaces the embedded asset bundle.
	AssetsDir string
	Catalog   []string

	Parallelism    int
	ExtractTimeout time.Duration
	DecodeTimeout  time.Duration

	// LoadOnStart loads the catalog when the TUI starts instead of waiting
	// for the user.
	LoadOnStart bool

	Viewer          ViewerConfig
	DocumentService DocumentServiceConfig
}

func New(dataDir string, catalog []string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("%w: data dir is required", apperrors.ErrInvalidInput)
	}
	cfg := Config{
		Catalog:         append([]string(nil), catalog...),
		LogLevel:        "info",
		Parallelism:     DefaultParallelism,
		ExtractTimeout:  DefaultExtractTimeout,
		DecodeTimeout:   DefaultDecodeTimeout,
		DocumentService: DocumentServiceConfig{Validate: ValidateRelaxed},
	}
	cfg.setDataDir(dataDir)
	return cfg, cfg.Validate()
}

// Load builds the defaults for dataDir and overlays the YAML file at path.
// A missing file is not an error.
func Load(path, dataDir string, catalog []string) (Config, error) {
	cfg, err := New(dataDir, catalog)
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	file.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Catalog) == 0 {
		return fmt.Errorf("%w: catalog is empty", apperrors.ErrInvalidInput)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must be >= 0", apperrors.ErrInvalidInput)
	}
	if c.ExtractTimeout <= 0 || c.DecodeTimeout <= 0 {
		return fmt.Errorf("%w: stage timeouts must be positive", apperrors.ErrInvalidInput)
	}
	switch c.DocumentService.Validate {
	case ValidateOff, ValidateRelaxed, ValidateStrict:
	default:
		return fmt.Errorf("%w: unknown validate mode %q", apperrors.ErrInvalidInput, c.DocumentService.Validate)
	}
	seen := make(map[string]string, len(c.Catalog))
	for _, name := range c.Catalog {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: catalog entry is blank", apperrors.ErrInvalidInput)
		}
		local := slug.FileName(name)
		if prev, ok := seen[local]; ok {
			return fmt.Errorf("%w: catalog entries %q and %q map to the same local file", apperrors.ErrInvalidInput, prev, name)
		}
		seen[local] = name
	}
	return nil
}

func (c *Config) setDataDir(dataDir string) {
	c.DataDir = dataDir
	c.ExtractDir = filepath.Join(dataDir, "documents")
	c.DBPath = filepath.Join(dataDir, "docshelf.db")
	c.LogFile = filepath.Join(dataDir, "docshelf.log")
}

type fileConfig struct {
	DataDir        string         `yaml:"data_dir"`
	AssetsDir      string         `yaml:"assets_dir"`
	Catalog        []string       `yaml:"catalog"`
	Parallelism    *int           `yaml:"parallelism"`
	ExtractTimeout *time.Duration `yaml:"extract_timeout"`
	DecodeTimeout  *time.Duration `yaml:"decode_timeout"`
	LoadOnStart    *bool          `yaml:"load_on_start"`
	Viewer         struct {
		ShowChrome *bool `yaml:"show_chrome"`
	} `yaml:"viewer"`
	DocumentService struct {
		Plugin   string `yaml:"plugin"`
		Validate string `yaml:"validate"`
	} `yaml:"document_service"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func (f fileConfig) apply(cfg *Config) {
	if f.DataDir != "" {
		cfg.setDataDir(f.DataDir)
	}
	if f.AssetsDir != "" {
		cfg.AssetsDir = f.AssetsDir
	}
	if len(f.Catalog) > 0 {
		cfg.Catalog = f.Catalog
	}
	if f.Parallelism != nil {
		cfg.Parallelism = *f.Parallelism
	}
	if f.ExtractTimeout != nil {
		cfg.ExtractTimeout = *f.ExtractTimeout
	}
	if f.DecodeTimeout != nil {
		cfg.DecodeTimeout = *f.DecodeTimeout
	}
	if f.LoadOnStart != nil {
		cfg.LoadOnStart = *f.LoadOnStart
	}
	if f.Viewer.ShowChrome != nil {
		cfg.Viewer.ShowChrome = *f.Viewer.ShowChrome
	}
	if f.DocumentService.Plugin != "" {
		cfg.DocumentService.Plugin = f.DocumentService.Plugin
	}
	if f.DocumentService.Validate != "" {
		cfg.DocumentService.Validate = strings.ToLower(f.DocumentService.Validate)
	}
	if f.Log.Level != "" {
		cfg.LogLevel = f.Log.Level
	}
	if f.Log.File != "" {
		cfg.LogFile = f.Log.File
	}
}
