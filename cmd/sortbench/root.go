package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamirms/sortbench"
	"github.com/tamirms/sortbench/internal/stream"
)

const envPrefix = "SORTBENCH"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sortbench",
		Short:        "Benchmark external sorting of uint64 datasets",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-json", "", "also append JSON logs to this file")

	root.AddCommand(newRunCmd(), newGenerateCmd(), newVerifyCmd())
	return root
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	v      *viper.Viper
	logger *slog.Logger
	stdout io.Writer
	closer func() error
}

func (e *env) Close() error {
	return e.closer()
}

// setup binds the command's flags into a viper instance that also reads
// SORTBENCH_* variables, and builds the logger.
func setup(cmd *cobra.Command) (*env, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	logger, closer, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &env{v: v, logger: logger, stdout: cmd.OutOrStdout(), closer: closer}, nil
}

func newLogger(v *viper.Viper, stderr io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	handler := slog.Handler(slog.NewTextHandler(stderr, opts))
	closer := func() error { return nil }
	if path := v.GetString("log-json"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open json log: %w", err)
		}
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(f, opts))
		closer = f.Close
	}
	return slog.New(handler), closer, nil
}

// bytesFlag parses a size such as "8KiB" or "1GB". An empty value is 0.
func (e *env) bytesFlag(key string) (uint64, error) {
	s := strings.TrimSpace(e.v.GetString(key))
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", key, err)
	}
	return n, nil
}

// dir returns --dir, defaulting to the system temp directory.
func (e *env) dir() string {
	if d := e.v.GetString("dir"); d != "" {
		return d
	}
	return os.TempDir()
}

// libOptions translates the shared flags into library options.
func (e *env) libOptions() ([]sortbench.Option, error) {
	opts := []sortbench.Option{
		sortbench.WithLogger(e.logger),
		sortbench.WithChunkSize(e.v.GetInt("chunk-size")),
	}
	memory, err := e.bytesFlag("memory")
	if err != nil {
		return nil, err
	}
	if memory > 0 {
		opts = append(opts, sortbench.WithMemoryBudget(memory))
	}
	return opts, nil
}

func addSharedFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("memory", "", "working memory budget, e.g. 256MiB (default: cgroup limit or physical memory)")
	f.Int("chunk-size", stream.DefaultChunkSize, "stream chunk size in bytes")
}

var errMissingSorter = errors.New("missing sorter name")
