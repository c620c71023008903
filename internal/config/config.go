package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG subdirectories used for config and data.
const AppName = "newsanalyzer"

const (
	configPathEnv  = "NEWSANALYZER_CONFIG"
	modelPathEnv   = "NEWSANALYZER_MODEL_PATH"
	logLevelEnv    = "NEWSANALYZER_LOG_LEVEL"
	archivePathEnv = "NEWSANALYZER_ARCHIVE_PATH"
	userAgentEnv   = "NEWSANALYZER_USER_AGENT"

	defaultBaseURL   = "https://search.naver.com/search.naver"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultMaxPages  = 400
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Search     SearchConfig     `yaml:"search"`
	Keywords   KeywordsConfig   `yaml:"keywords"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Workers    WorkersConfig    `yaml:"workers"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SearchConfig describes the news search endpoint and HTTP behaviour.
type SearchConfig struct {
	BaseURL    string        `yaml:"baseUrl"`
	UserAgent  string        `yaml:"userAgent"`
	Timeout    time.Duration `yaml:"timeout"`
	Pages      int           `yaml:"pages"`
	MaxPages   int           `yaml:"maxPages"`
	PageStride int           `yaml:"pageStride"`
}

// KeywordsConfig holds comma-separated include/exclude keyword lists.
type KeywordsConfig struct {
	Include string `yaml:"include"`
	Exclude string `yaml:"exclude"`
}

// EmbeddingConfig points at the word-embedding model and training output.
type EmbeddingConfig struct {
	ModelPath    string  `yaml:"modelPath"`
	TitleWeight  float64 `yaml:"titleWeight"`
	Train        bool    `yaml:"train"`
	TrainedModel string  `yaml:"trainedModel"`
}

// ClusteringConfig tunes the density-based cluster engine.
type ClusteringConfig struct {
	MinClusterSize     int   `yaml:"minClusterSize"`
	MinSamples         int   `yaml:"minSamples"`
	AllowSingleCluster *bool `yaml:"allowSingleCluster"`
}

// SingleClusterAllowed defaults to true when unset.
func (c ClusteringConfig) SingleClusterAllowed() bool {
	return c.AllowSingleCluster == nil || *c.AllowSingleCluster
}

// WorkersConfig sizes the worker pools; zero derives the size from the CPU.
type WorkersConfig struct {
	Pages   int `yaml:"pages"`
	Details int `yaml:"details"`
	Embed   int `yaml:"embed"`
}

// ArchiveConfig locates the run archive. An empty path or Disabled turns it off.
type ArchiveConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// Load reads YAML configuration and applies environment overrides. The file
// is path when given, else $NEWSANALYZER_CONFIG, else the XDG default when
// it exists. An explicitly named file that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		explicit = false
		path = DefaultConfigFile()
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// DefaultConfigFile is $XDG_CONFIG_HOME/newsanalyzer/config.yaml.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultArchivePath is $XDG_DATA_HOME/newsanalyzer/runs.db.
func DefaultArchivePath() string {
	return filepath.Join(xdg.DataHome, AppName, "runs.db")
}

// Validate reports settings that cannot produce a meaningful run.
func (c Config) Validate() error {
	var errs []error
	if c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search.baseUrl is empty"))
	}
	if c.Search.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("search.maxPages %d must be positive", c.Search.MaxPages))
	}
	if c.Search.Pages < 1 || c.Search.Pages > c.Search.MaxPages {
		errs = append(errs, fmt.Errorf("search.pages %d out of range 1-%d", c.Search.Pages, c.Search.MaxPages))
	}
	if c.Embedding.TitleWeight < 0 || c.Embedding.TitleWeight > 1 {
		errs = append(errs, fmt.Errorf("embedding.titleWeight %.2f outside [0,1]", c.Embedding.TitleWeight))
	}
	if c.Embedding.Train && c.Embedding.TrainedModel == "" {
		errs = append(errs, errors.New("embedding.trainedModel is required when training"))
	}
	if c.Clustering.MinClusterSize < 2 {
		errs = append(errs, fmt.Errorf("clustering.minClusterSize %d must be at least 2", c.Clustering.MinClusterSize))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(modelPathEnv); v != "" {
		c.Embedding.ModelPath = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(archivePathEnv); v != "" {
		c.Archive.Path = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.Search.UserAgent = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = strings.ToLower(override.Logging.Format)
	}

	if override.Search.BaseURL != "" {
		base.Search.BaseURL = override.Search.BaseURL
	}
	if override.Search.UserAgent != "" {
		base.Search.UserAgent = override.Search.UserAgent
	}
	if override.Search.Timeout > 0 {
		base.Search.Timeout = override.Search.Timeout
	}
	if override.Search.Pages > 0 {
		base.Search.Pages = override.Search.Pages
	}
	if override.Search.MaxPages > 0 {
		base.Search.MaxPages = override.Search.MaxPages
	}
	if override.Search.PageStride > 0 {
		base.Search.PageStride = override.Search.PageStride
	}

	if override.Keywords.Include != "" {
		base.Keywords.Include = override.Keywords.Include
	}
	if override.Keywords.Exclude != "" {
		base.Keywords.Exclude = override.Keywords.Exclude
	}

	if override.Embedding.ModelPath != "" {
		base.Embedding.ModelPath = override.Embedding.ModelPath
	}
	if override.Embedding.TitleWeight != 0 {
		base.Embedding.TitleWeight = override.Embedding.TitleWeight
	}
	if override.Embedding.Train {
		base.Embedding.Train = true
	}
	if override.Embedding.TrainedModel != "" {
		base.Embedding.TrainedModel = override.Embedding.TrainedModel
	}

	if override.Clustering.MinClusterSize > 0 {
		base.Clustering.MinClusterSize = override.Clustering.MinClusterSize
	}
	if override.Clustering.MinSamples > 0 {
		base.Clustering.MinSamples = override.Clustering.MinSamples
	}
	if override.Clustering.AllowSingleCluster != nil {
		base.Clustering.AllowSingleCluster = override.Clustering.AllowSingleCluster
	}

	if override.Workers.Pages > 0 {
		base.Workers.Pages = override.Workers.Pages
	}
	if override.Workers.Details > 0 {
		base.Workers.Details = override.Workers.Details
	}
	if override.Workers.Embed > 0 {
		base.Workers.Embed = override.Workers.Embed
	}

	if override.Archive.Path != "" {
		base.Archive.Path = override.Archive.Path
	}
	if override.Archive.Disabled {
		base.Archive.Disabled = true
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Search: SearchConfig{
			BaseURL:    defaultBaseURL,
			UserAgent:  defaultUserAgent,
			Timeout:    15 * time.Second,
			Pages:      1,
			MaxPages:   defaultMaxPages,
			PageStride: 10,
		},
		Embedding:  EmbeddingConfig{TitleWeight: 0.2},
		Clustering: ClusteringConfig{MinClusterSize: 2, MinSamples: 2},
		Archive:    ArchiveConfig{Path: DefaultArchivePath()},
	}
}
