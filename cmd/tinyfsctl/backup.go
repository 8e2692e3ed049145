package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup IMAGE SNAPSHOT.lz4",
	Short: "Write an lz4-compressed snapshot of an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackup(args[0], args[1])
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore SNAPSHOT.lz4 IMAGE",
	Short: "Restore an image from an lz4-compressed snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestore(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(backupCmd, restoreCmd)
}

func runBackup(image, snapshot string) error {
	src, err := os.Open(image)
	if err != nil {
		return fmt.Errorf("tinyfsctl: backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(snapshot)
	if err != nil {
		return fmt.Errorf("tinyfsctl: backup: %w", err)
	}
	defer dst.Close()

	w := lz4.NewWriter(dst)
	defer w.Close()

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("tinyfsctl: backup: %w", err)
	}
	return nil
}

func runRestore(snapshot, image string) error {
	if _, err := os.Stat(image); err == nil {
		return fmt.Errorf("tinyfsctl: restore: %s already exists", image)
	}

	src, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("tinyfsctl: restore: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(image, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return fmt.Errorf("tinyfsctl: restore: %w", err)
	}
	defer dst.Close()

	r := lz4.NewReader(src)
	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("tinyfsctl: restore: %w", err)
	}
	return nil
}
