package arcindex

import (
	"sort"
	"strings"
)

// ExtensionCount is the number of members sharing an extension.
type ExtensionCount struct {
	Ext   string `json:"ext"`
	Count int    `json:"count"`
}

// ArchiveInfo summarizes an archive's members.
type ArchiveInfo struct {
	Format           Format                  `json:"format"`
	Flags            ArchiveFlags            `json:"flags"`
	TotalFiles       int                     `json:"totalFiles"`
	ImageFiles       int                     `json:"imageFiles"`
	PackedSize       int64                   `json:"packedSize"`
	UnpackedSize     int64                   `json:"unpackedSize"`
	CompressionRatio float64                 `json:"compressionRatio"`
	Extensions       []ExtensionCount        `json:"extensions"`
	ByCompression    map[CompressionType]int `json:"byCompression"`
}

// Summarize builds the summary of files. CompressionRatio is packed over
// unpacked size, zero for an empty archive.
func Summarize(format Format, flags ArchiveFlags, files []MemberFile) ArchiveInfo {
	info := ArchiveInfo{
		Format:        format,
		Flags:         flags,
		TotalFiles:    len(files),
		ByCompression: make(map[CompressionType]int),
	}
	exts := make(map[string]int)
	for _, f := range files {
		info.PackedSize += f.Size
		info.UnpackedSize += f.FSize
		info.ByCompression[f.CType]++
		if IsImageName(f.FileName) {
			info.ImageFiles++
		}
		ext := Ext(f.FileName)
		if ext == "" {
			ext = "(none)"
		}
		exts[ext]++
	}
	if info.UnpackedSize > 0 {
		info.CompressionRatio = float64(info.PackedSize) / float64(info.UnpackedSize)
	}
	for ext, n := range exts {
		info.Extensions = append(info.Extensions, ExtensionCount{Ext: ext, Count: n})
	}
	sort.Slice(info.Extensions, func(i, j int) bool {
		if info.Extensions[i].Count != info.Extensions[j].Count {
			return info.Extensions[i].Count > info.Extensions[j].Count
		}
		return info.Extensions[i].Ext < info.Extensions[j].Ext
	})
	return info
}

// Info summarizes the archive.
func (a *Archive) Info() ArchiveInfo { return Summarize(a.Format, a.Flags, a.Members) }

// FindByName returns the first member whose FileName or FilePath equals name,
// ignoring case.
func (a *Archive) FindByName(name string) (MemberFile, bool) {
	for _, m := range a.Members {
		if strings.EqualFold(m.FileName, name) || strings.EqualFold(m.FilePath, name) {
			return m, true
		}
	}
	return MemberFile{}, false
}

// FindByExtension returns the members whose extension matches ext, with or
// without the leading dot, ignoring case.
func (a *Archive) FindByExtension(ext string) []MemberFile {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	var out []MemberFile
	for _, m := range a.Members {
		if Ext(m.FileName) == ext {
			out = append(out, m)
		}
	}
	return out
}
