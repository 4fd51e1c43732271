// Package report renders indexing results for the command line tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/javi11/arcindex"
)

var (
	unsupportedColor = color.New(color.FgYellow)
	corruptedColor   = color.New(color.FgRed, color.Bold)
	imageColor       = color.New(color.FgMagenta)
	headerColor      = color.New(color.FgCyan, color.Bold)
)

// CategoryColor returns the color failures of category c are printed in.
func CategoryColor(c arcindex.ErrorCategory) *color.Color {
	switch c {
	case arcindex.CategoryUnsupported:
		return unsupportedColor
	case arcindex.CategoryImage:
		return imageColor
	default:
		return corruptedColor
	}
}

// Size renders n bytes for humans (IEC units).
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Printer writes results to Out and failures to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// Failure prints err for path in the color of its category.
func (p *Printer) Failure(path string, err error) {
	cat := arcindex.Category(err)
	CategoryColor(cat).Fprintf(p.Err, "%s: %s: %v\n", path, cat, err)
}

// Members prints one line per member: unpacked size, compression and path.
func (p *Printer) Members(path string, a *arcindex.Archive, members []arcindex.MemberFile) {
	headerColor.Fprintf(p.Out, "%s (%s, %d files)\n", path, a.Format, len(members))
	for _, m := range members {
		fmt.Fprintf(p.Out, "  %10s  %-12s  %s\n", Size(m.FSize), m.CType, m.FilePath)
	}
}

// Info prints the summary of one archive.
func (p *Printer) Info(path string, info arcindex.ArchiveInfo) {
	headerColor.Fprintf(p.Out, "%s\n", path)
	fmt.Fprintf(p.Out, "  format:      %s%s\n", info.Format, flagText(info.Flags))
	fmt.Fprintf(p.Out, "  files:       %d (%d images)\n", info.TotalFiles, info.ImageFiles)
	fmt.Fprintf(p.Out, "  size:        %s packed, %s unpacked (ratio %.2f)\n",
		Size(info.PackedSize), Size(info.UnpackedSize), info.CompressionRatio)

	exts := make([]string, 0, len(info.Extensions))
	for _, e := range info.Extensions {
		exts = append(exts, fmt.Sprintf("%s=%d", e.Ext, e.Count))
	}
	fmt.Fprintf(p.Out, "  extensions:  %s\n", strings.Join(exts, " "))
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func flagText(f arcindex.ArchiveFlags) string {
	var parts []string
	if f.MultiVolume {
		parts = append(parts, fmt.Sprintf("volume %d", f.Volume))
	}
	if f.Solid {
		parts = append(parts, "solid")
	}
	if f.Locked {
		parts = append(parts, "locked")
	}
	if f.RecoveryRecord {
		parts = append(parts, "recovery record")
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
