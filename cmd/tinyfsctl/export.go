package main

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/cavaliercoder/go-cpio"
	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var exportCmd = &cobra.Command{
	Use:   "export IMAGE ARCHIVE.cpio",
	Short: "Export the whole image as a cpio archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(image, archivePath string) error {
	fsys, err := tinyfs.Mount(image)
	if err != nil {
		return err
	}
	defer fsys.Close()

	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := cpio.NewWriter(out)
	defer w.Close()

	if err := exportDir(fsys, w, "/"); err != nil {
		return fmt.Errorf("tinyfsctl: export: %w", err)
	}
	return nil
}

func exportDir(fsys *tinyfs.Filesystem, w *cpio.Writer, dir string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		full := path.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return err
		}
		if e.IsDir() {
			if err := w.WriteHeader(&cpio.Header{
				Name: full + "/",
				Mode: cpio.ModeDir | 0755,
			}); err != nil {
				return err
			}
			if err := exportDir(fsys, w, full); err != nil {
				return err
			}
			continue
		}
		if err := writeFileEntry(fsys, w, full, info); err != nil {
			return err
		}
	}
	return nil
}

func writeFileEntry(fsys *tinyfs.Filesystem, w *cpio.Writer, full string, info interface{ Size() int64 }) error {
	f, err := fsys.OpenFile(full)
	if err != nil {
		return err
	}
	if err := w.WriteHeader(&cpio.Header{
		Name: full,
		Mode: cpio.FileMode(0644),
		Size: info.Size(),
	}); err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
