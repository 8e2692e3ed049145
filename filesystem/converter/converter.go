// Package converter adapts a filesystem.FileSystem to the standard
// library's io/fs.FS, so a mounted image can be served by anything that
// already speaks io/fs (http.FileServer, text/template's embed-like
// loaders, and so on).
package converter

import (
	"io/fs"

	"github.com/tinyfs/go-tinyfs/filesystem"
)

type fsCompatible struct {
	filesystem.FileSystem
}

type fileWrapper struct {
	filesystem.File
	info fs.FileInfo
}

func (f *fileWrapper) Stat() (fs.FileInfo, error) {
	if f.info == nil {
		return nil, fs.ErrInvalid
	}
	return f.info, nil
}

func (f *fsCompatible) Open(name string) (fs.File, error) {
	info, err := f.Stat("/" + name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrInvalid
	}
	file, err := f.OpenFile("/" + name)
	if err != nil {
		return nil, err
	}
	return &fileWrapper{File: file, info: info}, nil
}

// FS wraps f as an io/fs.FS rooted at f's own root. Only regular files can
// be opened through it; directories are not (io/fs.FS callers that need
// directory listings should use filesystem.FileSystem.ReadDir directly).
func FS(f filesystem.FileSystem) fs.FS {
	return &fsCompatible{f}
}
