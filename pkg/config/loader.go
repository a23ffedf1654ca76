package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	nerrors "github.com/ajitpratap0/fetchcsv/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "FETCHCSV"

// Load resolves the configuration from flags, FETCHCSV_* environment
// variables, the YAML file at path (optional) and defaults, then validates
// it. flags may be nil.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	cfg, err := Resolve(flags, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve is Load without validation
func Resolve(flags *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		content, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, nerrors.Wrap(err, nerrors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(content))))); err != nil {
			return nil, nerrors.Wrap(err, nerrors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, nerrors.Wrap(err, nerrors.ErrorTypeInternal, "failed to bind flag").
					WithDetail("flag", name)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeConfig, "failed to decode configuration")
	}
	return cfg, nil
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrorTypeInternal, "failed to marshal YAML")
	}
	return data, nil
}

// setDefaults registers every key so AutomaticEnv can see it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("fetch.url", d.Fetch.URL)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.retries", d.Fetch.Retries)
	v.SetDefault("fetch.initial_backoff", d.Fetch.InitialBackoff)
	v.SetDefault("fetch.max_backoff", d.Fetch.MaxBackoff)
	v.SetDefault("fetch.retry_malformed", d.Fetch.RetryMalformed)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.max_rows", d.Output.MaxRows)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.no_console", d.Log.NoConsole)
	v.SetDefault("telemetry.metrics_file", d.Telemetry.MetricsFile)
	v.SetDefault("telemetry.trace_file", d.Telemetry.TraceFile)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
