// Command arcindex prints the member index of ZIP and RAR archives.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/javi11/arcindex"
	"github.com/javi11/arcindex/internal/config"
	"github.com/javi11/arcindex/internal/report"
)

type app struct {
	configPath string
	jsonOut    bool

	cfg     *config.Config
	logger  *slog.Logger
	printer *report.Printer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{printer: &report.Printer{Out: out, Err: errOut}}

	root := &cobra.Command{
		Use:           "arcindex",
		Short:         "Index the members of ZIP and RAR archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger(errOut)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default arcindex.yaml in . or $HOME/.config/arcindex)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.Bool("full-scan", true, "search the whole file for an archive signature")
	pf.Bool("natural-sort", true, "order members naturally")
	pf.String("charset", "windows-1252", "charset tried for legacy RAR names")
	pf.Int("workers", 0, "archives indexed in parallel (0 = GOMAXPROCS)")
	pf.BoolVar(&a.jsonOut, "json", false, "print JSON")

	root.AddCommand(newListCmd(a), newInfoCmd(a), newFindCmd(a))
	return root
}

// index discovers the archives under roots and opens them. Failures are
// printed as they are met; the returned error only says how many there were.
func (a *app) index(ctx context.Context, roots []string) ([]arcindex.IndexResult, error) {
	var paths []string
	failed, total := 0, 0
	for _, root := range roots {
		found, err := arcindex.DiscoverArchives(arcindex.OSFileSystem, root)
		if err != nil {
			a.printer.Failure(root, err)
			failed++
			total++
			continue
		}
		paths = append(paths, found...)
	}

	results, err := arcindex.IndexPaths(ctx, arcindex.OSFileSystem, paths, a.cfg.Workers, a.cfg.Options(a.logger)...)
	if err != nil {
		a.logger.Debug("indexing finished with failures", slog.Any("error", err))
	}
	total += len(results)
	ok := results[:0:0]
	for _, r := range results {
		if r.Err != nil {
			a.printer.Failure(r.Path, r.Err)
			failed++
			continue
		}
		ok = append(ok, r)
	}
	if failed > 0 {
		return ok, fmt.Errorf("%d of %d archives failed", failed, total)
	}
	return ok, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
