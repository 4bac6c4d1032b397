package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "WINEDAEMON"
	configFileName = "winedaemon"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"exe":                "exe",
	"shim":               "shim",
	"stdin":              "stdin",
	"stdout":             "stdout",
	"stderr":             "stderr",
	"startup-timeout":    "startup_timeout",
	"stop-poll-interval": "stop_poll_interval",
	"work-dir":           "work_dir",
	"ready-prefix":       "ready_prefix",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

// RegisterFlags adds a flag for every configuration key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := Default()

	flags.String("exe", "", "path to the Windows executable to daemonize")
	flags.String("shim", defaults.Shim, "program that runs the executable ('-' runs it directly)")
	flags.String("stdin", "", "file the daemon's standard input is read from (default /dev/null)")
	flags.String("stdout", "", "file the daemon's standard output is appended to (default /dev/null)")
	flags.String("stderr", "", "file the daemon's standard error is appended to (default /dev/null)")
	flags.Duration("startup-timeout", defaults.StartupTimeout, "how long 'start' waits for the executable to become ready")
	flags.Duration("stop-poll-interval", defaults.StopPollInterval, "delay between termination signals sent by 'stop'")
	flags.String("work-dir", defaults.WorkDir, "working directory of the daemon")
	flags.String("ready-prefix", "", "output line prefix that marks the executable as ready")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn or error")
	flags.String("log-format", defaults.Log.Format, "log format: text or json")
}

// Loader loads a Config.
type Loader struct {
	configFile string
	searchDir  string
	flags      *pflag.FlagSet
}

// NewLoader creates a Loader. configFile is an explicit YAML file to
// read. If it is empty, 'winedaemon.yaml' is read from searchDir when
// present. flags may be nil; otherwise it must have been set up with
// RegisterFlags.
func NewLoader(configFile string, searchDir string, flags *pflag.FlagSet) *Loader {
	return &Loader{
		configFile: configFile,
		searchDir:  searchDir,
		flags:      flags,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Flags that were set on the command line
// 2. Environment variables (WINEDAEMON_*)
// 3. Config file
// 4. Default values
//
// Relative paths are resolved against the working directory.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., WINEDAEMON_LOG_LEVEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if l.flags != nil {
		for flagName, key := range flagKeys {
			flag := l.flags.Lookup(flagName)
			if flag == nil {
				continue
			}

			err := v.BindPFlag(key, flag)
			if err != nil {
				return nil, fmt.Errorf("failed to bind flag '%s' - %w", flagName, err)
			}
		}
	}

	if len(l.configFile) > 0 {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.searchDir)
	}

	err := v.ReadInConfig()
	if err != nil {
		// Config file not found is acceptable unless one was
		// named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file - %w", err)
		}
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config - %w", err)
	}

	err = Validate(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration - %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values. Every key needs a
// default so that Unmarshal picks up environment variables for it.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("exe", defaults.Exe)
	v.SetDefault("shim", defaults.Shim)
	v.SetDefault("stdin", defaults.Stdin)
	v.SetDefault("stdout", defaults.Stdout)
	v.SetDefault("stderr", defaults.Stderr)
	v.SetDefault("startup_timeout", defaults.StartupTimeout)
	v.SetDefault("stop_poll_interval", defaults.StopPollInterval)
	v.SetDefault("work_dir", defaults.WorkDir)
	v.SetDefault("ready_prefix", defaults.ReadyPrefix)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}
