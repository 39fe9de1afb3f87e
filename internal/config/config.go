package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rohankatakam/semdiff/internal/errors"
)

// Config holds all configuration settings
type Config struct {
	// Analyzer settings shared read-only by every category analyzer
	Analyzer AnalyzerConfig `yaml:"analyzer" mapstructure:"analyzer"`

	// Run settings for the batch driver and CLI
	Run RunConfig `yaml:"run" mapstructure:"run"`

	// Logging settings
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// AnalyzerConfig governs which paths are in scope and which imports/calls are side-effecting
type AnalyzerConfig struct {
	Include           []string `yaml:"include" mapstructure:"include" json:"include"`
	Exclude           []string `yaml:"exclude" mapstructure:"exclude" json:"exclude"`
	SideEffectModules []string `yaml:"side_effect_modules" mapstructure:"side_effect_modules" json:"side_effect_modules"`
	SideEffectCallees []string `yaml:"side_effect_callees" mapstructure:"side_effect_callees" json:"side_effect_callees"`
	TestGlobs         []string `yaml:"test_globs" mapstructure:"test_globs" json:"test_globs"`
	BypassLabels      []string `yaml:"bypass_labels" mapstructure:"bypass_labels" json:"bypass_labels"`
}

type RunConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Isolation      string        `yaml:"isolation" mapstructure:"isolation"` // "inprocess", "subprocess"
	Format         string        `yaml:"format" mapstructure:"format"`       // "" = detect from environment
	FailOn         string        `yaml:"fail_on" mapstructure:"fail_on"`     // "", "low", "medium", "high"
	CacheDir       string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	MetricsFile    string        `yaml:"metrics_file" mapstructure:"metrics_file"`
	Labels         []string      `yaml:"labels" mapstructure:"labels"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

const (
	IsolationInProcess  = "inprocess"
	IsolationSubprocess = "subprocess"

	// DefaultTimeout bounds one file-pair analysis
	DefaultTimeout = 120 * time.Second
)

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Include: []string{},
			Exclude: []string{"**/node_modules/**", "**/dist/**", "**/*.d.ts"},
			TestGlobs: []string{
				"**/*.test.*",
				"**/*.spec.*",
				"**/__tests__/**",
			},
			SideEffectModules: []string{},
			SideEffectCallees: []string{},
			BypassLabels:      []string{"semdiff:skip"},
		},
		Run: RunConfig{
			MaxConcurrency: runtime.NumCPU(),
			Timeout:        DefaultTimeout,
			Isolation:      IsolationInProcess,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file, environment and .env files
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("SEMDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".semdiff")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".semdiff"))
		if projectFile, err := findProjectFile(".semdiff.yaml"); err == nil {
			v.SetConfigFile(projectFile)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigErrorf("failed to unmarshal config: %v", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("analyzer.include", cfg.Analyzer.Include)
	v.SetDefault("analyzer.exclude", cfg.Analyzer.Exclude)
	v.SetDefault("analyzer.side_effect_modules", cfg.Analyzer.SideEffectModules)
	v.SetDefault("analyzer.side_effect_callees", cfg.Analyzer.SideEffectCallees)
	v.SetDefault("analyzer.test_globs", cfg.Analyzer.TestGlobs)
	v.SetDefault("analyzer.bypass_labels", cfg.Analyzer.BypassLabels)

	v.SetDefault("run.max_concurrency", cfg.Run.MaxConcurrency)
	v.SetDefault("run.timeout", cfg.Run.Timeout)
	v.SetDefault("run.isolation", cfg.Run.Isolation)
	v.SetDefault("run.format", cfg.Run.Format)
	v.SetDefault("run.fail_on", cfg.Run.FailOn)
	v.SetDefault("run.cache_dir", cfg.Run.CacheDir)
	v.SetDefault("run.metrics_file", cfg.Run.MetricsFile)
	v.SetDefault("run.labels", cfg.Run.Labels)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			// godotenv.Load never overrides variables that are already set
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".semdiff", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies short-form environment variables that CI systems set
func applyEnvOverrides(cfg *Config) {
	if labels := GetList("SEMDIFF_LABELS"); labels != nil {
		cfg.Run.Labels = labels
	}
	if modules := GetList("SEMDIFF_SIDE_EFFECT_MODULES"); modules != nil {
		cfg.Analyzer.SideEffectModules = modules
	}
	if callees := GetList("SEMDIFF_SIDE_EFFECT_CALLEES"); callees != nil {
		cfg.Analyzer.SideEffectCallees = callees
	}
	cfg.Run.MaxConcurrency = GetInt("SEMDIFF_WORKERS", cfg.Run.MaxConcurrency)
	if ms := GetInt("SEMDIFF_TIMEOUT_MS", 0); ms > 0 {
		cfg.Run.Timeout = time.Duration(ms) * time.Millisecond
	}
	cfg.Run.CacheDir = expandPath(GetString("SEMDIFF_CACHE_DIR", cfg.Run.CacheDir))
	cfg.Log.File = expandPath(cfg.Log.File)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("analyzer", map[string]interface{}{
		"include":             c.Analyzer.Include,
		"exclude":             c.Analyzer.Exclude,
		"side_effect_modules": c.Analyzer.SideEffectModules,
		"side_effect_callees": c.Analyzer.SideEffectCallees,
		"test_globs":          c.Analyzer.TestGlobs,
		"bypass_labels":       c.Analyzer.BypassLabels,
	})
	v.Set("run", map[string]interface{}{
		"max_concurrency": c.Run.MaxConcurrency,
		"timeout":         c.Run.Timeout.String(),
		"isolation":       c.Run.Isolation,
		"format":          c.Run.Format,
		"fail_on":         c.Run.FailOn,
		"cache_dir":       c.Run.CacheDir,
		"metrics_file":    c.Run.MetricsFile,
		"labels":          c.Run.Labels,
	})
	v.Set("log", map[string]interface{}{
		"level": c.Log.Level,
		"file":  c.Log.File,
		"json":  c.Log.JSON,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
