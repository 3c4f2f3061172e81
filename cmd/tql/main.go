package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/victorcalife/tql"
	"github.com/victorcalife/tql/control"
)

var (
	tenant      = flag.String("tenant", "demo", "tenant to evaluate as")
	dataPath    = flag.String("data", "", "path to a JSON fixture with datasets; built-in demo data when empty")
	watch       = flag.Bool("watch", false, "keep the program subscribed and print each refresh")
	timeout     = flag.Duration("timeout", 10*time.Second, "evaluation timeout")
	metricsAddr = flag.String("metrics", "", "address to serve prometheus metrics on, e.g. :9090")
	verbose     = flag.Bool("v", false, "verbose logging")
)

func usage() {
	message := `usage: tql [OPTIONS] QUERY

Evaluates a TQL program and prints the result as JSON.
A QUERY argument of @path reads the program from a file.

Examples:
    tql 'CONTAR vendas;'
    tql -tenant acme -data fixtures.json @painel.tql
    tql -watch 'DASHBOARD "D" ATUALIZAR_A_CADA 1 MINUTO: ...'

Options:
`
	fmt.Fprint(os.Stderr, message)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(2)
	}
	src := args[0]
	if strings.HasPrefix(src, "@") {
		content, err := os.ReadFile(src[1:])
		if err != nil {
			logger.Fatal().Err(err).Msg("reading program file")
		}
		src = string(content)
	}

	catalog, provider, err := loadFixtures(*dataPath, *tenant)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading fixtures")
	}

	engine := tql.NewEngine(catalog, provider,
		tql.WithTimeout(*timeout),
		tql.WithLogger(logger),
	)

	if *watch {
		runWatch(engine, src, logger)
		return
	}

	res, err := engine.Run(context.Background(), src, *tenant)
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
	printResult(res)
}

// runWatch subscribes the program and prints every refresh until
// interrupted.
func runWatch(engine *tql.Engine, src string, logger zerolog.Logger) {
	ctrl := engine.NewController(control.WithLogger(logger))
	defer ctrl.Shutdown()

	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(ctrl.PrometheusCollectors()...)
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	sub := ctrl.Subscribe(context.Background(), src, *tenant)
	defer sub.Unsubscribe()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case specs := <-sub.Updates():
			out, err := json.MarshalIndent(specs, "", "  ")
			if err != nil {
				logger.Error().Err(err).Msg("encoding result")
				continue
			}
			fmt.Println(string(out))
		case <-interrupt:
			return
		}
	}
}

func printResult(res *tql.Result) {
	out := struct {
		Variables  map[string]interface{} `json:"variables,omitempty"`
		Dashboards interface{}            `json:"dashboards,omitempty"`
	}{
		Variables: make(map[string]interface{}),
	}
	for name, v := range res.Env {
		switch {
		case v.NoData:
			out.Variables[name] = nil
		case v.IsTable():
			out.Variables[name] = v.Table.Rows
		default:
			out.Variables[name] = v.Scalar
		}
	}
	if len(res.Dashboards) > 0 {
		out.Dashboards = res.Dashboards
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
