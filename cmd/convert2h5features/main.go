// Command convert2h5features converts a set of feature files (npy, npz,
// csv or existing h5features files) into a single h5features file.
//
// Usage:
//
//	convert2h5features file [file ...] [-o output] [-g group] [--chunk MB]
//
// Files are converted sequentially in the order given on the command line.
// The first failure stops the run with a non-zero exit status; no output
// file is written in that case.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scigolib/h5features"
)

func newRootCmd() *cobra.Command {
	var (
		output string
		group  string
		chunk  float64
	)

	cmd := &cobra.Command{
		Use:   "convert2h5features file [file ...]",
		Short: "Convert a set of feature files into a single h5features file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Past argument parsing, errors are conversion failures
			// and repeating the usage text would drown them.
			cmd.SilenceUsage = true

			converter, err := h5features.NewConverter(output, group, chunk)
			if err != nil {
				return err
			}
			for _, file := range args {
				if err := converter.Convert(file); err != nil {
					return err
				}
			}
			return converter.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "features.h5",
		"output h5features file")
	cmd.Flags().StringVarP(&group, "group", "g", h5features.DefaultGroup,
		"name of the group to write in the output file")
	cmd.Flags().Float64Var(&chunk, "chunk", h5features.DefaultChunkMB,
		"chunk size in MB for writing features")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
