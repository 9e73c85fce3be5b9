package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/d21d3q/goktmcan/internal/bus"
	"gitlab.com/d21d3q/goktmcan/internal/config"
	"gitlab.com/d21d3q/goktmcan/internal/monitor"
	"gitlab.com/d21d3q/goktmcan/internal/observability"
	"gitlab.com/d21d3q/goktmcan/internal/options"
	"gitlab.com/d21d3q/goktmcan/pkg/goktmcan"
)

type flags struct {
	configPath  string
	file        string
	iface       string
	unmapped    bool
	assert      bool
	jsonOut     bool
	only        []string
	stopOnError bool
	metricsAddr string
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "goktmcan-decode [frame]",
		Short: "Decode KTM 790 Duke CAN frames",
		Long: "goktmcan-decode decodes CAN frames from the KTM 790 Duke bus. Frames are read " +
			"from the argument, a candump log (--file), a SocketCAN interface (--iface) or " +
			"interactively from stdin.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			if err := cfg.Log.ConfigureLogger(logrus.StandardLogger()); err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case len(args) == 1:
				return runAnalyze(ctx, cfg, out, args[0])
			case cfg.Source.File != "" || cfg.Source.Interface != "":
				return runStream(ctx, cfg, in, out)
			default:
				return runInteractive(ctx, cfg, in, out)
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to a TOML configuration file")
	root.Flags().StringVar(&f.file, "file", "", "replay frames from a candump log file (- for stdin)")
	root.Flags().StringVar(&f.iface, "iface", "", "read frames from a SocketCAN interface, e.g. can0")
	root.Flags().BoolVar(&f.unmapped, "unmapped", false, "report payload bytes no field consumed")
	root.Flags().BoolVar(&f.assert, "assert", false, "enable layout consistency checks")
	root.Flags().BoolVar(&f.jsonOut, "json", false, "print results as JSON")
	root.Flags().StringSliceVar(&f.only, "only", nil, "only print these identifiers (comma separated, hex)")
	root.Flags().BoolVar(&f.stopOnError, "stop-on-error", false, "stop streaming at the first frame that fails to decode")
	root.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while streaming, e.g. :9108")

	root.AddCommand(newIDsCmd(out))
	return root
}

func newIDsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "List the identifiers the decoder understands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range goktmcan.Identifiers() {
				fmt.Fprintf(out, "0x%03X  %s\n", id, goktmcan.Name(id))
			}
			return nil
		},
	}
}

// resolveConfig loads the optional file and lets explicitly set flags win.
func resolveConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	changed := cmd.Flags().Changed
	if changed("file") {
		cfg.Source.File = f.file
		cfg.Source.Interface = ""
	}
	if changed("iface") {
		cfg.Source.Interface = f.iface
		cfg.Source.File = ""
	}
	if changed("file") && changed("iface") {
		return config.Config{}, fmt.Errorf("--file and --iface are mutually exclusive")
	}
	if changed("unmapped") {
		cfg.Decoder.EmitUnmapped = f.unmapped
	}
	if changed("assert") {
		cfg.Decoder.EnableAssertions = f.assert
	}
	if changed("stop-on-error") {
		cfg.Decoder.StopOnError = f.stopOnError
	}
	if changed("json") {
		cfg.Output.Format = config.FormatText
		if f.jsonOut {
			cfg.Output.Format = config.FormatJSON
		}
	}
	if changed("only") {
		cfg.Output.Only = f.only
	}
	if changed("metrics-addr") {
		cfg.Metrics.Listen = f.metricsAddr
	}
	return cfg, config.Validate(cfg)
}

func decoderOptions(cfg config.Config) goktmcan.Options {
	return goktmcan.Options{
		EmitUnmapped:     cfg.Decoder.EmitUnmapped,
		EnableAssertions: cfg.Decoder.EnableAssertions,
	}
}

func runAnalyze(ctx context.Context, cfg config.Config, out io.Writer, line string) error {
	result, err := goktmcan.AnalyzeLineWithOptions(ctx, line, decoderOptions(cfg))
	if err != nil {
		return err
	}
	return printResult(out, cfg.Output.Format, result)
}

func runInteractive(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	logrus.Info("goktmcan decode mode. Paste a frame (e.g. 120#067900000000003F) and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, cfg, out, line); err != nil {
			logrus.WithError(err).Error("failed to decode frame")
		}
	}
	return scanner.Err()
}

func runStream(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	only, err := options.ParseIdentifiers(cfg.Output.Only...)
	if err != nil {
		return err
	}
	src, err := openSource(cfg, in, only)
	if err != nil {
		return err
	}
	defer src.Close()

	logger := logrus.StandardLogger()
	src = bus.NewLoggedSource(src, logger, logrus.TraceLevel)
	metrics, stopMetrics, err := startMetrics(cfg.Metrics.Listen, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()
	dec := goktmcan.New(decoderOptions(cfg))
	sink := func(r goktmcan.Result) error {
		return printResult(out, cfg.Output.Format, r)
	}
	stats, err := monitor.Run(ctx, src, dec, sink, monitor.Options{
		Only:        only,
		StopOnError: cfg.Decoder.StopOnError,
		Logger:      logger,
		Metrics:     metrics,
	})
	logger.WithFields(logrus.Fields{
		"frames":  stats.Frames,
		"decoded": stats.Decoded,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}).Info("stream finished")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startMetrics serves a fresh registry on addr. An empty addr disables
// metrics. The returned stop function shuts the server down.
func startMetrics(addr string, logger logrus.FieldLogger) (*observability.Metrics, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	srv, errc := observability.Serve(addr, reg)
	logger.WithField("addr", addr).Info("serving metrics")
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown")
		}
		if err := <-errc; err != nil {
			logger.WithError(err).Error("metrics server stopped")
		}
	}
	return metrics, stop, nil
}

// openSource opens the configured interface or log file. A file of "-"
// replays in.
func openSource(cfg config.Config, in io.Reader, only []uint32) (bus.Source, error) {
	if cfg.Source.Interface != "" {
		sc := bus.SocketCANConfig{
			Interface: cfg.Source.Interface,
			RequireUp: cfg.Source.RequireUp,
		}
		if cfg.Source.KernelFilter {
			for _, id := range only {
				sc.Filters = append(sc.Filters, bus.StdFilter(id))
			}
		}
		can, err := bus.OpenSocketCAN(sc)
		if err != nil {
			return nil, err
		}
		return can, nil
	}
	if cfg.Source.File == "-" {
		return bus.NewLogSource(in), nil
	}
	file, err := os.Open(cfg.Source.File)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return bus.NewLogSource(file), nil
}

func printResult(out io.Writer, format string, r goktmcan.Result) error {
	if format == config.FormatJSON {
		record := map[string]any{
			"id":     fmt.Sprintf("0x%03X", r.ID),
			"name":   r.Name,
			"frame":  r.RawFrame,
			"fields": r.FieldSet().Map(),
		}
		return json.NewEncoder(out).Encode(record)
	}
	_, err := fmt.Fprintln(out, r.Line())
	return err
}
