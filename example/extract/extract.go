package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"

	"github.com/javi11/arcindex"
	"github.com/javi11/arcindex/internal/config"
	"github.com/javi11/arcindex/internal/report"
)

type extractor struct {
	cfg      *config.Config
	logger   *slog.Logger
	printer  *report.Printer
	progress io.Writer
}

type job struct {
	path    string
	archive *arcindex.Archive
	member  arcindex.MemberFile
}

// memberFailure is an extraction error for one member. Other members are
// still extracted.
type memberFailure struct {
	label string
	err   error
}

func (f *memberFailure) Error() string { return f.label + ": " + f.err.Error() }
func (f *memberFailure) Unwrap() error { return f.err }

func (e *extractor) run(ctx context.Context, roots []string) error {
	merr := &multierror.Error{ErrorFormat: func(errs []error) string {
		return fmt.Sprintf("%d failures", len(errs))
	}}

	var paths []string
	for _, root := range roots {
		found, err := arcindex.DiscoverArchives(arcindex.OSFileSystem, root)
		if err != nil {
			merr = multierror.Append(merr, &memberFailure{label: root, err: err})
			continue
		}
		paths = append(paths, found...)
	}

	results, _ := arcindex.IndexPaths(ctx, arcindex.OSFileSystem, paths, e.cfg.Workers, e.cfg.Options(e.logger)...)
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, &memberFailure{label: r.Path, err: r.Err})
		}
	}

	jobs, total := e.plan(results)
	e.logger.Info("extracting", slog.Int("members", len(jobs)), slog.String("size", report.Size(total)))

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(1*time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(e.progress, "\n")
		}),
	)
	extracted := 0
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, &memberFailure{label: j.path, err: err})
			break
		}
		if err := e.extractOne(j); err != nil {
			merr = multierror.Append(merr, &memberFailure{label: j.path + ": " + j.member.FilePath, err: err})
		} else {
			extracted++
		}
		// ignore all errors from progress bar.
		_ = bar.Add64(j.member.FSize)
	}
	_ = bar.Finish()

	for _, err := range merr.Errors {
		var f *memberFailure
		if errors.As(err, &f) {
			e.printer.Failure(f.label, f.err)
		}
	}
	fmt.Fprintf(e.printer.Out, "extracted %d of %d members to %s\n", extracted, len(jobs), e.cfg.Output.Dir)
	return merr.ErrorOrNil()
}

// plan lists the members to extract and their total unpacked size.
func (e *extractor) plan(results []arcindex.IndexResult) ([]job, int64) {
	var jobs []job
	var total int64
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, m := range r.Archive.Members {
			if e.cfg.Images.Only && !arcindex.IsImageName(m.FilePath) {
				continue
			}
			jobs = append(jobs, job{path: r.Path, archive: r.Archive, member: m})
			total += m.FSize
		}
	}
	return jobs, total
}

func (e *extractor) extractOne(j job) error {
	data, err := j.archive.Extract(j.member)
	if err != nil {
		return err
	}
	if err := arcindex.CheckCRC(j.member, data); err != nil {
		return err
	}
	if e.cfg.Images.Only {
		if _, err := arcindex.SniffImage(data); err != nil {
			return err
		}
	}
	dest, err := destination(e.cfg.Output.Dir, j.path, j.archive.Format, j.member.FilePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: %w", arcindex.ErrIO, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", arcindex.ErrIO, err)
	}
	e.logger.Debug("extracted", slog.String("member", j.member.FilePath), slog.String("dest", dest))
	return nil
}

// destination returns where member of the archive at archivePath is written:
// a directory named after the archive inside outDir, or outDir itself for a
// loose image. Member paths that would leave that directory are rejected.
func destination(outDir, archivePath string, format arcindex.Format, member string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(member, `\`, "/"))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: member path %q escapes the output directory", arcindex.ErrCorruptedArchive, member)
	}
	if format == arcindex.FormatImage {
		return filepath.Join(outDir, rel), nil
	}
	base := filepath.Base(archivePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem, rel), nil
}
