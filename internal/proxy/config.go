package proxy

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// fileConfig is the on-disk shape of the configuration.
type fileConfig struct {
	SiteDir        string        `koanf:"site_dir"`
	Upstream       string        `koanf:"upstream"`
	OriginTTL      time.Duration `koanf:"origin_ttl"`
	Storage        string        `koanf:"storage"`
	StateDir       string        `koanf:"state_dir"`
	RestoreTimeout time.Duration `koanf:"restore_timeout"`
	PrintEnabled   bool          `koanf:"print_enabled"`
	PrintTimeout   time.Duration `koanf:"print_timeout"`
	Owner          string        `koanf:"owner"`
	Contact        string        `koanf:"contact"`
	HomeLabel      string        `koanf:"home_label"`
	HomeHref       string        `koanf:"home_href"`
	TopLabel       string        `koanf:"top_label"`
	LandingPaths   []string      `koanf:"landing_paths"`
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path when
// it exists, then PAGEKIT_* environment variables (PAGEKIT_SITE_DIR ->
// site_dir).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	fc := fileConfig{
		SiteDir:        cfg.SiteDir,
		OriginTTL:      cfg.OriginTTL,
		Storage:        string(cfg.Storage),
		StateDir:       cfg.StateDir,
		RestoreTimeout: cfg.RestoreTimeout,
		PrintEnabled:   cfg.PrintEnabled,
		PrintTimeout:   cfg.PrintTimeout,
		Owner:          cfg.Site.Owner,
		HomeLabel:      cfg.Site.HomeLabel,
		HomeHref:       cfg.Site.HomeHref,
		TopLabel:       cfg.Site.TopLabel,
	}

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("PAGEKIT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PAGEKIT_"))
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}
	if err := k.Unmarshal("", &fc); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.SiteDir = fc.SiteDir
	cfg.Upstream = strings.TrimSpace(fc.Upstream)
	cfg.OriginTTL = fc.OriginTTL
	cfg.Storage = StorageMode(strings.ToLower(strings.TrimSpace(fc.Storage)))
	cfg.StateDir = fc.StateDir
	cfg.RestoreTimeout = fc.RestoreTimeout
	cfg.PrintEnabled = fc.PrintEnabled
	cfg.PrintTimeout = fc.PrintTimeout
	cfg.Site.Owner = fc.Owner
	cfg.Site.Contact = fc.Contact
	cfg.Site.HomeLabel = fc.HomeLabel
	cfg.Site.HomeHref = fc.HomeHref
	cfg.Site.TopLabel = fc.TopLabel
	// Slices are decoded in place; keep the defaults out of fc so a shorter
	// list from the file does not inherit their tail.
	if len(fc.LandingPaths) > 0 {
		cfg.Site.LandingPaths = fc.LandingPaths
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration contains usable values.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageDisk, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage %q: must be one of memory, disk, sqlite", c.Storage)
	}
	if c.Storage != StorageMemory && c.StateDir == "" {
		return fmt.Errorf("state_dir is required for %s storage", c.Storage)
	}
	if c.Upstream == "" && c.SiteDir == "" {
		return fmt.Errorf("either site_dir or upstream is required")
	}
	if c.RestoreTimeout <= 0 {
		return fmt.Errorf("restore_timeout must be positive")
	}
	return nil
}
