package main

import (
	"fmt"
	"os"

	"github.com/google/renameio"
	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs IMAGE",
	Short: "Create a new tinyfs image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMkfs(args[0])
	},
}

func init() {
	rootCmd.AddCommand(mkfsCmd)
}

// runMkfs builds the image at a collision-free temporary path in the same
// directory as dest (so the final rename stays on one filesystem) and only
// publishes it at dest once mkfs has fully succeeded. tinyfs's device layer
// insists on creating its own backing file (O_EXCL), so it cannot write
// through renameio.PendingFile directly; renameio is used here only to
// reserve that temporary name, and the final publish is the same rename
// CloseAtomicallyReplace would have performed.
func runMkfs(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("tinyfsctl: mkfs: %s already exists", dest)
	}

	pending, err := renameio.TempFile("", dest)
	if err != nil {
		return fmt.Errorf("tinyfsctl: mkfs: reserve temp name: %w", err)
	}
	tmpPath := pending.Name()
	pending.Cleanup()

	fsys, err := tinyfs.Mkfs(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("tinyfsctl: mkfs: %w", err)
	}
	if err := fsys.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("tinyfsctl: mkfs: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("tinyfsctl: mkfs: publish image: %w", err)
	}
	fmt.Printf("created tinyfs image %s (%d inodes, %d data blocks)\n", dest, tinyfs.MaxInodes, tinyfs.MaxDataBlocks)
	return nil
}
