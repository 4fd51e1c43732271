package arcindex

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileSystem abstracts the operations needed to find and load archives.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (fs.File, error)
	ReadDir(path string) ([]fs.DirEntry, error)
}

type osFS struct{}

func (osFS) Stat(p string) (fs.FileInfo, error)      { return os.Stat(p) }
func (osFS) Open(p string) (fs.File, error)          { return os.Open(p) }
func (osFS) ReadDir(p string) ([]fs.DirEntry, error) { return os.ReadDir(p) }

// FromFS adapts an io/fs filesystem, such as testing/fstest.MapFS.
func FromFS(fsys fs.FS) FileSystem { return ioFS{fsys} }

type ioFS struct{ fsys fs.FS }

func (f ioFS) Stat(p string) (fs.FileInfo, error)      { return fs.Stat(f.fsys, p) }
func (f ioFS) Open(p string) (fs.File, error)          { return f.fsys.Open(p) }
func (f ioFS) ReadDir(p string) ([]fs.DirEntry, error) { return fs.ReadDir(f.fsys, p) }

// OSFileSystem is the FileSystem backed by the os package.
var OSFileSystem FileSystem = osFS{}

// LoadFile reads the whole file at path. Failures wrap ErrIO.
func LoadFile(fsys FileSystem, path string) ([]byte, error) {
	st, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIO, path)
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer func() { _ = f.Close() }()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return buf, nil
}

// OpenFile loads path from fsys and opens it as an archive. Loose image
// files become single member archives.
func OpenFile(fsys FileSystem, path string, optFns ...func(*Options)) (*Archive, error) {
	buf, err := LoadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	if IsImageName(path) && !IsArchiveName(path) {
		return SingleImage(baseName(path), buf)
	}
	a, err := Open(buf, optFns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}
