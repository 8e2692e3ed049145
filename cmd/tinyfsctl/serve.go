package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tinyfs/go-tinyfs/filesystem/converter"
	"github.com/tinyfs/go-tinyfs/filesystem/tinyfs"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve IMAGE",
	Short: "Serve an image's regular files over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := tinyfs.Mount(args[0])
		if err != nil {
			return err
		}
		defer fsys.Close()

		http.Handle("/", http.FileServer(http.FS(converter.FS(fsys))))
		fmt.Printf("serving %q on %s\n", args[0], serveAddr)
		//nolint:gosec // example-grade server, no timeouts configured
		return http.ListenAndServe(serveAddr, nil)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8100", "address to serve on")
	rootCmd.AddCommand(serveCmd)
}
