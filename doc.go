// Package fetchcsv fetches a JSON document over HTTP(S) and saves it as CSV.
//
// A run is a short, strictly sequential pipeline:
//
//  1. Fetch: one logical GET with a per-attempt timeout and a bounded retry
//     loop with exponential backoff. Transport failures and non-2xx statuses
//     are retried; everything else is terminal.
//  2. Normalize: the parsed document becomes an ordered sequence of rows. An
//     array yields one row per element (objects as-is, anything else as a
//     single "value" column), an object yields one row, and a scalar yields a
//     single "value" row.
//  3. Write: the rows are written all-or-nothing to a CSV file whose header is
//     the sorted union of every row's keys.
//
// # Quick Start
//
//	fetchcsv --url https://api.example.com/items --out data/items.csv
//	fetchcsv --url https://api.example.com/items --out data/items.csv.gz \
//	    --compression gzip --max-rows 1000 --retries 5 --no-console
//
// On success the command prints "Wrote <n> rows to <path>" and exits 0. Any
// failure prints "ERROR: <message>" to stderr and exits 1. Every run is also
// logged as JSON to logs/app.log.
//
// # Key Packages
//
//	pkg/fetcher           - HTTP fetch with retries and backoff
//	pkg/normalize         - JSON value to rows
//	pkg/destinations/csv  - atomic CSV writer with optional compression
//	pkg/models            - ordered JSON value model and rows
//	pkg/config            - flags, environment and YAML configuration
//	pkg/errors            - structured error handling
//	pkg/logger            - structured file and console logging
//	pkg/metrics           - Prometheus metrics for a run
//	pkg/observability     - OpenTelemetry tracing
//	internal/pipeline     - the run driver
package fetchcsv
