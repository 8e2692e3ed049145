//go:build fuse

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
	"github.com/tinyfs/go-tinyfs/fuseadapter"
)

var mountCmd = &cobra.Command{
	Use:   "mount IMAGE MOUNTPOINT",
	Short: "Mount a tinyfs image with FUSE (requires -tags fuse)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		server, err := fuseadapter.Mount(fsys, args[1])
		if err != nil {
			return fmt.Errorf("tinyfsctl: mount: %w", err)
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		<-sigs

		return server.Unmount()
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
