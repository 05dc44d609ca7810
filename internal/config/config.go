// Package config loads and validates fsroute.json project configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsroute-dev/fsroute/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fsroute.json"

	// DefaultHandlersRoot is the default handlers directory.
	DefaultHandlersRoot = "endpoints"

	// DefaultOutputPath is the default registry location.
	DefaultOutputPath = "routes.json"

	// DefaultEntryFile is the per-directory entry file name.
	DefaultEntryFile = "index.go"

	// DefaultPort is the default serve port.
	DefaultPort = 8080

	// DefaultHost is the default serve host.
	DefaultHost = "localhost"
)

// Config represents the complete fsroute.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Compiler contains route compilation settings.
	Compiler CompilerConfig `json:"compiler,omitempty"`

	// Dispatch contains serve-time dispatch settings.
	Dispatch DispatchConfig `json:"dispatch,omitempty"`

	// Serve contains HTTP server settings.
	Serve ServeConfig `json:"serve,omitempty"`

	// Dev contains watch-mode settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Store contains registry persistence settings.
	Store StoreConfig `json:"store,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// CompilerConfig contains route compilation settings.
type CompilerConfig struct {
	// HandlersRoot is the directory walked for route entry files.
	HandlersRoot string `json:"handlersRoot,omitempty"`

	// OutputPath is where the compiled registry is written.
	OutputPath string `json:"outputPath,omitempty"`

	// ExcludedNames are directory names pruned anywhere in the tree.
	ExcludedNames []string `json:"excludedNames,omitempty"`

	// EntryFileName overrides the per-directory entry file name.
	EntryFileName string `json:"entryFileName,omitempty"`

	// Verbose enables per-route compile logging.
	Verbose bool `json:"verbose,omitempty"`
}

// DispatchConfig contains serve-time dispatch settings.
type DispatchConfig struct {
	// RegistryPath is the registry consumed at serve time.
	RegistryPath string `json:"registryPath,omitempty"`

	// AllowedMethods is the method whitelist. Empty or absent allows
	// any method.
	AllowedMethods []string `json:"allowedMethods,omitempty"`
}

// ServeConfig contains HTTP server settings.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`
}

// DevConfig contains watch-mode settings.
type DevConfig struct {
	// Watch contains extra paths to watch beyond the handlers root.
	Watch []string `json:"watch,omitempty"`

	// Ignore contains glob patterns skipped during watch.
	Ignore []string `json:"ignore,omitempty"`

	// DebounceMS is the quiet period after a change, in milliseconds.
	DebounceMS int `json:"debounceMs,omitempty"`
}

// StoreConfig contains registry persistence settings.
type StoreConfig struct {
	// Type selects the backend: "file" (default) or "s3".
	Type string `json:"type,omitempty"`

	// Bucket is the S3 bucket for the s3 backend.
	Bucket string `json:"bucket,omitempty"`

	// Key is the S3 object key for the s3 backend.
	Key string `json:"key,omitempty"`

	// Region overrides the AWS region for the s3 backend. When empty
	// the SDK's default resolution applies.
	Region string `json:"region,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is console or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Compiler: CompilerConfig{
			HandlersRoot:  DefaultHandlersRoot,
			OutputPath:    DefaultOutputPath,
			EntryFileName: DefaultEntryFile,
		},
		Dispatch: DispatchConfig{
			RegistryPath: DefaultOutputPath,
		},
		Serve: ServeConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Dev: DevConfig{
			DebounceMS: 100,
		},
		Store: StoreConfig{
			Type: "file",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for fsroute.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E040").
				WithDetail("No fsroute.json found in " + filepath.Dir(path)).
				WithSuggestion("Create fsroute.json in the project root, or pass flags explicitly")
		}
		return nil, errors.New("E041").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E041").
			WithDetail("Failed to parse fsroute.json: " + err.Error()).
			WithSuggestion("Check that fsroute.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E041").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E041").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Compiler.HandlersRoot == "" {
		c.Compiler.HandlersRoot = DefaultHandlersRoot
	}
	if c.Compiler.OutputPath == "" {
		c.Compiler.OutputPath = DefaultOutputPath
	}
	if c.Compiler.EntryFileName == "" {
		c.Compiler.EntryFileName = DefaultEntryFile
	}
	if c.Dispatch.RegistryPath == "" {
		c.Dispatch.RegistryPath = c.Compiler.OutputPath
	}
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Dev.DebounceMS == 0 {
		c.Dev.DebounceMS = 100
	}
	if c.Store.Type == "" {
		c.Store.Type = "file"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.New("E042").
			WithDetail("Port must be between 0 and 65535")
	}
	switch c.Store.Type {
	case "file", "s3":
	default:
		return errors.New("E042").
			WithDetail("Store type must be \"file\" or \"s3\", got \"" + c.Store.Type + "\"")
	}
	if c.Store.Type == "s3" && (c.Store.Bucket == "" || c.Store.Key == "") {
		return errors.New("E042").
			WithDetail("The s3 store requires both bucket and key")
	}
	return nil
}

// ServeAddress returns the address string for the HTTP server.
func (c *Config) ServeAddress() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// HandlersRootPath returns the absolute path to the handlers directory.
func (c *Config) HandlersRootPath() string {
	return c.resolve(c.Compiler.HandlersRoot)
}

// OutputPathAbs returns the absolute path to the registry output.
func (c *Config) OutputPathAbs() string {
	return c.resolve(c.Compiler.OutputPath)
}

// RegistryPathAbs returns the absolute path to the serve-time registry.
func (c *Config) RegistryPathAbs() string {
	return c.resolve(c.Dispatch.RegistryPath)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir() == "" {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing fsroute.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E040").
				WithDetail("No fsroute.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
