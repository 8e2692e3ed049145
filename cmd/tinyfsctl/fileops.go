package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var lsCmd = &cobra.Command{
	Use:   "ls IMAGE PATH",
	Short: "List a directory's entries",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()
		entries, err := fsys.ReadDir(args[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			kind := "f"
			if e.IsDir() {
				kind = "d"
			}
			fmt.Printf("%s %s\n", kind, e.Name())
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat IMAGE PATH",
	Short: "Print a regular file's contents to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()
		f, err := fsys.OpenFile(args[1])
		if err != nil {
			return err
		}
		_, err = io.Copy(os.Stdout, f)
		return err
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir IMAGE PATH",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()
		return fsys.Mkdir(args[1])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm IMAGE PATH",
	Short: "Remove a regular file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()
		return fsys.Remove(args[1])
	},
}

var writeCmd = &cobra.Command{
	Use:   "write IMAGE PATH SRCFILE",
	Short: "Create or overwrite a regular file from a host-side source file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		src, err := os.Open(args[2])
		if err != nil {
			return err
		}
		defer src.Close()

		if _, err := fsys.Stat(args[1]); err != nil {
			if err := fsys.Create(args[1]); err != nil {
				return err
			}
		} else if err := fsys.Truncate(args[1], 0); err != nil {
			return err
		}
		dst, err := fsys.OpenFile(args[1])
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, src)
		return err
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, catCmd, mkdirCmd, rmCmd, writeCmd)
}
