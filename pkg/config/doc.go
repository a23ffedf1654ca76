// Package config resolves the fetchcsv run configuration.
//
// A Config is organized into logical sections:
//   - Fetch: source URL, per-attempt timeout, retry and backoff settings
//   - Output: destination path, row cap, compression
//   - Log: log file, level, console mirror
//   - Telemetry: metrics and trace output files
//
// Values are resolved in priority order: explicit command line flags,
// FETCHCSV_* environment variables, the optional YAML config file, then
// defaults. Environment keys are the config key upper-cased with dots and
// dashes replaced by underscores, so "fetch.max_backoff" is read from
// FETCHCSV_FETCH_MAX_BACKOFF.
//
// # Config file
//
//	fetch:
//	  url: https://api.example.com/items?token=${API_TOKEN}
//	  timeout: 5
//	  retries: 4
//	  max_backoff: 30s
//	output:
//	  path: out/items.csv
//	  max_rows: 1000
//
// ${VAR} references are replaced with the environment value before the file
// is parsed; unset variables expand to the empty string.
//
// # Usage
//
//	cmd := &cobra.Command{Use: "fetchcsv"}
//	config.RegisterFlags(cmd.Flags())
//	...
//	cfg, err := config.Load(cmd.Flags(), configFile)
//	if err != nil {
//	    return err
//	}
package config
