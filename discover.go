package arcindex

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

var (
	partRe      = regexp.MustCompile(`(?i)[_.-]?part(\d+)\.rar$`)
	oldVolumeRe = regexp.MustCompile(`(?i)\.r\d{2}$`)
)

// isFollowingVolume reports whether name is the second or later volume of a
// multi-volume RAR set (name.part2.rar, name.r00). Those cannot be indexed on
// their own.
func isFollowingVolume(name string) bool {
	if m := partRe.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[1])
		return err == nil && n > 1
	}
	return oldVolumeRe.MatchString(name)
}

// DiscoverArchives expands root into the archive and image files to open.
// A file is returned as is. A directory yields its archives and images (not
// recursing), skipping following volumes of multi-volume sets, in natural
// order.
func DiscoverArchives(fsys FileSystem, root string) ([]string, error) {
	st, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, root, err)
	}
	if !st.IsDir() {
		return []string{root}, nil
	}
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %w", ErrIO, root, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isFollowingVolume(name) {
			continue
		}
		if IsArchiveName(name) || IsImageName(name) {
			out = append(out, filepath.Join(root, name))
		}
	}
	slices.SortFunc(out, CompareNatural)
	return out, nil
}
