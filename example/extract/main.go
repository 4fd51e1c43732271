// Command arcindex-extract writes the members of archives to disk. Only stored
// and Deflate members can be extracted; RAR compressed members are reported
// and skipped.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/javi11/arcindex/internal/config"
	"github.com/javi11/arcindex/internal/report"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "arcindex-extract <path>...",
		Short:         "Extract stored and Deflate members from archives",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			e := &extractor{
				cfg:      cfg,
				logger:   cfg.Logger(os.Stderr),
				printer:  &report.Printer{Out: os.Stdout, Err: os.Stderr},
				progress: os.Stderr,
			}
			return e.run(cmd.Context(), args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default arcindex.yaml in . or $HOME/.config/arcindex)")
	f.StringP("output", "o", ".", "output directory")
	f.Bool("images-only", false, "only extract members whose data is an image")
	f.String("log-level", "warn", "log level: debug, info, warn, error")
	f.Bool("full-scan", true, "search the whole file for an archive signature")
	f.String("charset", "windows-1252", "charset tried for legacy RAR names")
	f.Int("workers", 0, "archives indexed in parallel (0 = GOMAXPROCS)")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
