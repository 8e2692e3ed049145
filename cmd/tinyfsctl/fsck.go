package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck IMAGE",
	Short: "Check bitmap/inode consistency of a tinyfs image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return fmt.Errorf("tinyfsctl: fsck: %w", err)
		}
		defer fsys.Close()

		report, err := fsys.Fsck()
		if err != nil {
			return fmt.Errorf("tinyfsctl: fsck: %w", err)
		}
		fmt.Printf("volume %s: %d/%d inodes, %d/%d data blocks reachable\n",
			report.VolumeUUID, report.ReachableInodes, report.InodeBitmapCount,
			report.ReachableBlocks, report.DataBitmapCount)
		fmt.Printf("free inode runs: %d, free data-block runs: %d\n",
			len(report.FreeInodeRuns), len(report.FreeDataRuns))
		if report.Clean() {
			fmt.Println("clean")
			return nil
		}
		for _, p := range report.Problems {
			fmt.Fprintln(os.Stderr, "problem:", p)
		}
		return fmt.Errorf("tinyfsctl: fsck: %d problem(s) found", len(report.Problems))
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)
}
