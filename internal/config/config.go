package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultPath           = "config.toml"
	DefaultBind           = "127.0.0.1:8080"
	DefaultProgramDir     = "program"
	DefaultTemplateDir    = "template"
	DefaultTimeBinary     = "/usr/bin/time"
	DefaultCompileTimeout = 30 * time.Second
	DefaultRunTimeout     = 10 * time.Second
)

// Compiler is one entry of the [compilers] table.
type Compiler struct {
	Language       string     `toml:"language"`
	Label          string     `toml:"label"`
	CopyFiles      [][]string `toml:"copy_files"`
	SourceFilename string     `toml:"source_filename"`
	CompileCommand []string   `toml:"compile_command"`
	RunCommand     []string   `toml:"run_command"`
}

type Config struct {
	Bind           string              `toml:"bind"`
	ProgramDir     string              `toml:"program_dir"`
	TemplateDir    string              `toml:"template_dir"`
	TimeBinary     string              `toml:"time_binary"`
	CompileTimeout time.Duration       `toml:"compile_timeout"`
	RunTimeout     time.Duration       `toml:"run_timeout"`
	RateLimit      float64             `toml:"rate_limit"`
	RateBurst      int                 `toml:"rate_burst"`
	Debug          bool                `toml:"debug"`
	Compilers      map[string]Compiler `toml:"compilers"`
}

// InitEnv loads a .env file into the process environment when one exists.
func InitEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Path returns the config file location, honouring RUNBOX_CONFIG.
func Path() string {
	return getEnv("RUNBOX_CONFIG", DefaultPath)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text, fills defaults and applies environment overrides.
func Parse(text string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Compilers) == 0 {
		return nil, errors.New("config defines no compilers")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bind == "" {
		c.Bind = DefaultBind
	}
	if c.ProgramDir == "" {
		c.ProgramDir = DefaultProgramDir
	}
	if c.TemplateDir == "" {
		c.TemplateDir = DefaultTemplateDir
	}
	if c.TimeBinary == "" {
		c.TimeBinary = DefaultTimeBinary
	}
	if c.CompileTimeout <= 0 {
		c.CompileTimeout = DefaultCompileTimeout
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = int(c.RateLimit) * 2
		if c.RateBurst < 1 {
			c.RateBurst = 1
		}
	}
}

func (c *Config) applyEnv() error {
	c.Bind = getEnv("RUNBOX_BIND", c.Bind)
	c.ProgramDir = getEnv("RUNBOX_PROGRAM_DIR", c.ProgramDir)
	c.TemplateDir = getEnv("RUNBOX_TEMPLATE_DIR", c.TemplateDir)
	if v, ok := os.LookupEnv("RUNBOX_DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUNBOX_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
