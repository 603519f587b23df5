package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"simflow/internal/errors"
)

// EnvPrefix prefixes every configuration environment variable. Nested keys are
// separated by a double underscore, e.g. SIMFLOW_SOLVERS__DUMMY__JOB_EXECUTOR.
const EnvPrefix = "SIMFLOW_"

const nestedSeparator = "__"

// Known job executors. The empty name means "run in-process".
var jobExecutors = map[string]bool{
	"":                        true,
	"BaseInteractiveExecutor": true,
	"BaseJobExecutor":         true,
}

// Config represents the complete application configuration
type Config struct {
	RootDirectory    string
	WorkingDirectory string
	LogLevel         string
	MaxWorkers       int
	ArchiveManager   string
	Database         DatabaseConfig
	Scratch          ScratchConfig
	Server           ServerConfig
	Solvers          map[string]*SolverConfig
}

// DatabaseConfig holds archive database settings
type DatabaseConfig struct {
	URL  string
	Mode string
}

// ScratchConfig holds scratch directory defaults
type ScratchConfig struct {
	Root        string
	Persistency string
}

// ServerConfig holds dashboard and API server settings
type ServerConfig struct {
	DashboardPort string
	APIPort       string
	GinMode       string
}

// SolverConfig holds the execution settings of one external solver
type SolverConfig struct {
	Command     string
	JobExecutor string
}

// Load reads configuration from the process environment and validates it
func Load() (*Config, error) {
	return load(os.LookupEnv, os.Environ())
}

// LoadFrom reads a dotenv file, then the process environment. Environment
// variables take precedence over the file.
func LoadFrom(dotenvPath string) (*Config, error) {
	fileValues, err := godotenv.Read(dotenvPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", dotenvPath)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}
	environ := os.Environ()
	for k, v := range fileValues {
		environ = append(environ, k+"="+v)
	}
	return load(lookup, environ)
}

// LoadDefault loads ./.env when present, then the process environment
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		return LoadFrom(".env")
	}
	return Load()
}

func load(lookup func(string) (string, bool), environ []string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			return v
		}
		return defaultValue
	}
	getInt := func(key string, defaultValue int) int {
		if v, err := strconv.Atoi(get(key, "")); err == nil {
			return v
		}
		return defaultValue
	}

	cfg := &Config{
		RootDirectory:    get("ROOT_DIRECTORY", "."),
		WorkingDirectory: get("WORKING_DIRECTORY", "."),
		LogLevel:         get("LOG_LEVEL", "INFO"),
		MaxWorkers:       getInt("MAX_WORKERS", 4),
		ArchiveManager:   get("ARCHIVE_MANAGER", "sqlite"),
		Database: DatabaseConfig{
			URL:  get("DATABASE__URL", "simflow_archive.db"),
			Mode: get("DATABASE__MODE", "Local"),
		},
		Scratch: ScratchConfig{
			Root:        get("SCRATCH__ROOT", "default_scratch/"),
			Persistency: get("SCRATCH__PERSISTENCY", "DeleteIfSuccessful"),
		},
		Server: ServerConfig{
			DashboardPort: get("SERVER__DASHBOARD_PORT", "8501"),
			APIPort:       get("SERVER__API_PORT", "8080"),
			GinMode:       get("SERVER__GIN_MODE", "release"),
		},
		Solvers: map[string]*SolverConfig{
			"dummy": {},
		},
	}

	if err := loadSolvers(cfg, environ); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// loadSolvers collects SIMFLOW_SOLVERS__<NAME>__<FIELD> variables
func loadSolvers(cfg *Config, environ []string) error {
	prefix := EnvPrefix + "SOLVERS" + nestedSeparator
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		name, field, ok := strings.Cut(strings.TrimPrefix(key, prefix), nestedSeparator)
		if !ok || name == "" {
			return errors.ConfigInvalid(fmt.Sprintf("malformed solver variable %s", key))
		}
		name = strings.ToLower(name)
		solver, exists := cfg.Solvers[name]
		if !exists {
			solver = &SolverConfig{}
			cfg.Solvers[name] = solver
		}
		switch strings.ToUpper(field) {
		case "COMMAND":
			solver.Command = value
		case "JOB_EXECUTOR":
			solver.JobExecutor = value
		default:
			return errors.ConfigInvalid(fmt.Sprintf("unknown solver setting %s", field))
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.MaxWorkers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("max workers must be positive, got %d", cfg.MaxWorkers))
	}
	switch cfg.ArchiveManager {
	case "sqlite", "postgres":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown archive manager %q", cfg.ArchiveManager))
	}
	switch cfg.Database.Mode {
	case "Local", "Team":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown database mode %q", cfg.Database.Mode))
	}
	for _, name := range cfg.SolverNames() {
		if err := ValidateJobExecutor(cfg.Solvers[name].JobExecutor); err != nil {
			return errors.Wrapf(err, "solver %s", name)
		}
	}
	return nil
}

// ValidateJobExecutor checks that a job executor name is known
func ValidateJobExecutor(name string) error {
	if !jobExecutors[name] {
		return errors.ConfigInvalid(fmt.Sprintf("Value error, %s does not exist.", name))
	}
	return nil
}

// SolverNames returns the configured solver names, sorted
func (c *Config) SolverNames() []string {
	names := make([]string, 0, len(c.Solvers))
	for name := range c.Solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dump flattens the configuration into environment variable form
func (c *Config) Dump() map[string]string {
	out := map[string]string{
		EnvPrefix + "ROOT_DIRECTORY":         c.RootDirectory,
		EnvPrefix + "WORKING_DIRECTORY":      c.WorkingDirectory,
		EnvPrefix + "LOG_LEVEL":              c.LogLevel,
		EnvPrefix + "MAX_WORKERS":            strconv.Itoa(c.MaxWorkers),
		EnvPrefix + "ARCHIVE_MANAGER":        c.ArchiveManager,
		EnvPrefix + "DATABASE__URL":          c.Database.URL,
		EnvPrefix + "DATABASE__MODE":         c.Database.Mode,
		EnvPrefix + "SCRATCH__ROOT":          c.Scratch.Root,
		EnvPrefix + "SCRATCH__PERSISTENCY":   c.Scratch.Persistency,
		EnvPrefix + "SERVER__DASHBOARD_PORT": c.Server.DashboardPort,
		EnvPrefix + "SERVER__API_PORT":       c.Server.APIPort,
		EnvPrefix + "SERVER__GIN_MODE":       c.Server.GinMode,
	}
	for _, name := range c.SolverNames() {
		key := EnvPrefix + "SOLVERS" + nestedSeparator + strings.ToUpper(name) + nestedSeparator
		out[key+"COMMAND"] = c.Solvers[name].Command
		out[key+"JOB_EXECUTOR"] = c.Solvers[name].JobExecutor
	}
	return out
}

// DriverName returns the sqlx driver name for the archive manager
func (c *Config) DriverName() string {
	if c.ArchiveManager == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}
