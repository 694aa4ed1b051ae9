// Command so2db converts Stack Exchange data dump XML files into delimited
// text files ready for a database bulk loader, and can load them directly.
//
// Usage:
//
//	so2db -in dump/ -out out/ [-table badges,posts] [-script postgres]
//	so2db -config run.json [-load postgres -dsn ... -create]
//	so2db -in - -table badges < Badges.xml > badges.dat
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"so2db/internal/config"
	"so2db/internal/lookup"
	"so2db/internal/metrics"
	"so2db/internal/metrics/datadog"
	"so2db/internal/metrics/prompush"

	// register all backends with the storage factory.
	_ "so2db/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		in                string
		out               string
		tablesFlg         string
		delimFlg          string
		jobs              int
		loadKind          string
		dsn               string
		create            bool
		script            string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "run config JSON path (optional)")
	flag.StringVar(&in, "in", "", "dump directory, single dump file, or - for stdin")
	flag.StringVar(&out, "out", "", "output directory for data files")
	flag.StringVar(&tablesFlg, "table", "", "comma-separated tables to convert (required with -in -)")
	flag.StringVar(&delimFlg, "delimiter", "", `field delimiter: one character or an escape like "\v" (default chr(11))`)
	flag.IntVar(&jobs, "jobs", 0, "files converted concurrently (default 1)")
	flag.StringVar(&loadKind, "load", "", "load converted files with a storage backend (postgres, mysql, mssql, sqlite)")
	flag.StringVar(&dsn, "dsn", "", "database DSN for -load (overrides env SO2DB_DSN)")
	flag.BoolVar(&create, "create", false, "create missing tables before loading")
	flag.StringVar(&script, "script", "", "write a load script for a SQL dialect (postgres, mysql, mssql, sqlite)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend (pushgateway, datadog, none); env METRICS_BACKEND")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides env DD_DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	log.SetOutput(os.Stderr)
	if !*verbose {
		log.SetFlags(0)
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fatalf("%v", err)
		}
	}

	var tables []string
	for _, t := range strings.Split(tablesFlg, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if in == "-" {
		if delimFlg != "" {
			cfg.Output.Delimiter = delimFlg
		}
		runFilter(cfg, tables)
		return
	}

	// Flags override file values.
	if in != "" {
		if st, err := os.Stat(in); err == nil && !st.IsDir() {
			cfg.Source = config.Source{Files: []string{in}}
		} else {
			cfg.Source = config.Source{Dir: in}
		}
	}
	if out != "" {
		cfg.Output.Dir = out
	}
	if delimFlg != "" {
		cfg.Output.Delimiter = delimFlg
	}
	if script != "" {
		cfg.Output.LoadScript = script
	}
	if jobs > 0 {
		cfg.Runtime.Jobs = jobs
	}
	if loadKind != "" {
		cfg.Storage.Kind = loadKind
	}
	if dsn == "" {
		dsn = os.Getenv("SO2DB_DSN")
	}
	if dsn != "" {
		cfg.Storage.DB.DSN = dsn
	}
	if create {
		cfg.Storage.DB.AutoCreateTable = true
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid")
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid")
		os.Exit(0)
	}

	flush := setupMetrics(cfg.Job, metricsBackendFlg, pushGatewayURLFlg, statsdAddrFlg, *verbose)

	rn, err := newRunner(cfg)
	if err != nil {
		fatalf("%v", err)
	}

	start := time.Now()
	if *verbose {
		log.Printf("run: job=%s source=%s%v out=%s jobs=%d storage=%s",
			cfg.Job, cfg.Source.Dir, cfg.Source.Files, cfg.Output.Dir, cfg.Runtime.Jobs, cfg.Storage.Kind)
	}
	if err := execute(ctx, rn, tables, flush); err != nil {
		log.Printf("%v", err)
		stop()
		os.Exit(1)
	}
	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
}

// execute runs rn and flushes metrics whether or not the run succeeded.
func execute(ctx context.Context, rn *runner, tables []string, flush func()) error {
	err := rn.run(ctx, tables)
	flush()
	return err
}

// runFilter reads one dump file from stdin and writes its records to stdout.
func runFilter(cfg config.Run, tables []string) {
	if len(tables) != 1 {
		fatalf("-in - requires exactly one -table")
	}
	delim, err := cfg.Delimiter()
	if err != nil {
		fatalf("%v", err)
	}
	catalog := lookup.Default().With(cfg.Tables)
	if _, err := filter(os.Stdin, os.Stdout, tables[0], catalog, delim); err != nil {
		fatalf("%v", err)
	}
}

// setupMetrics installs the selected metrics backend and returns a function
// that flushes it. The function is a no-op when metrics are disabled.
func setupMetrics(job, backendName, gwURL, statsdAddr string, verbose bool) func() {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	var (
		b   metrics.Backend
		err error
	)
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err = prompush.NewBackend(job, gwURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		}

	case "datadog":
		if statsdAddr == "" {
			statsdAddr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if statsdAddr == "" {
			statsdAddr = "127.0.0.1:8125"
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       statsdAddr,
			Namespace:  "so2db.",
			GlobalTags: []string{"job:" + job},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", statsdAddr, backendName, job)
		}

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backendName, err)
		return func() {}
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
