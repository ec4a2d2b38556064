package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Config represents the rdflift configuration from rdflift.yaml.
type Config struct {
	// Database is the SQLite query catalog path.
	Database string `mapstructure:"database"`

	// Format is the default output format (text|json).
	Format string `mapstructure:"format"`

	// SpecsDir is the default mapping spec directory.
	SpecsDir string `mapstructure:"specs_dir"`

	// Prefixes are registered in every compiled query.
	Prefixes map[string]string `mapstructure:"prefixes"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults. Flags are applied by the caller.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RDFLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	if !isValidFormat(cfg.Format) {
		return nil, configPath, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}

	return &cfg, configPath, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "rdflift.db")
	v.SetDefault("format", "text")
	v.SetDefault("specs_dir", "mappings")
	v.SetDefault("prefixes", map[string]string{})
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for rdflift.yaml or rdflift.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"rdflift.yaml", "rdflift.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// ResolvedSpecsDir returns the specs directory argument when given, else
// the configured one.
func (c *Config) ResolvedSpecsDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return c.SpecsDir
}

// ResolvedDatabase returns the --db flag value when set, else the
// configured database.
func (c *Config) ResolvedDatabase(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Database
}
