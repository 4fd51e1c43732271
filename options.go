package arcindex

import (
	"log/slog"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DebugEnv enables debug logging to stderr when no logger is supplied.
const DebugEnv = "ARCINDEX_DEBUG"

// Options customises parsing.
type Options struct {
	// Logger receives debug traces of the header walks and warnings for
	// non-fatal stops. Defaults to a discard logger, or a stderr debug logger
	// when ARCINDEX_DEBUG is set.
	Logger *slog.Logger

	// LegacyCharset is tried for RAR names that are not valid UTF-8, before
	// Shift-JIS. Defaults to windows-1252.
	LegacyCharset encoding.Encoding

	// ScanSignature searches the whole buffer for a signature, which finds
	// archives behind a self-extractor stub. When false only offset 0 is
	// checked. Defaults to true.
	ScanSignature bool

	// Sort applies natural ordering to the members returned by Open.
	// Defaults to true.
	Sort bool
}

// WithLogger sets Options.Logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// WithLegacyCharset sets Options.LegacyCharset.
func WithLegacyCharset(e encoding.Encoding) func(*Options) {
	return func(o *Options) { o.LegacyCharset = e }
}

// WithSignatureScan sets Options.ScanSignature.
func WithSignatureScan(scan bool) func(*Options) {
	return func(o *Options) { o.ScanSignature = scan }
}

// WithSort sets Options.Sort.
func WithSort(sort bool) func(*Options) {
	return func(o *Options) { o.Sort = sort }
}

func newOptions(optFns []func(*Options)) *Options {
	opts := &Options{
		LegacyCharset: charmap.Windows1252,
		ScanSignature: true,
		Sort:          true,
	}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}
	return opts
}

func defaultLogger() *slog.Logger {
	if os.Getenv(DebugEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}
