package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var importCmd = &cobra.Command{
	Use:   "import IMAGE SRCDIR DESTDIR",
	Short: "Copy a host directory tree into the image",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], args[1], args[2])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// runImport walks srcDir on the host and mirrors it under destDir inside the
// image, creating directories before the files they contain.
func runImport(image, srcDir, destDir string) error {
	fsys, err := tinyfs.Mount(image)
	if err != nil {
		return err
	}
	defer fsys.Close()

	return filepath.Walk(srcDir, func(hostPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, hostPath)
		if err != nil {
			return err
		}
		imgPath := filepath.ToSlash(filepath.Join(destDir, rel))

		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if err := fsys.Mkdir(imgPath); err != nil {
				return fmt.Errorf("tinyfsctl: import: mkdir %s: %w", imgPath, err)
			}
			return nil
		}

		if err := fsys.Create(imgPath); err != nil {
			return fmt.Errorf("tinyfsctl: import: create %s: %w", imgPath, err)
		}
		dst, err := fsys.OpenFile(imgPath)
		if err != nil {
			return err
		}
		src, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(dst, src); err != nil {
			return fmt.Errorf("tinyfsctl: import: copy %s: %w", imgPath, err)
		}
		return nil
	})
}
