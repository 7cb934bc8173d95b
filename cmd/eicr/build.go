package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"eicrcore/internal/builder"
	"eicrcore/internal/extract"
)

func buildCommand(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build circuit records from a board-scan or scribble JSON file",
		Long:  "Build reads extraction output from a file (or - for stdin) and prints the records the builder derives, numbered as if appended to an empty form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var raws []builder.RawCircuit
			mode := builder.ModeAppend
			switch kind {
			case "board":
				mode = builder.ModeFillBlank
				scan, err := extract.ParseBoardScan(data)
				if err != nil {
					return err
				}
				raws = scan.RawCircuits()
			case "scribble":
				raws, err = extract.ParseScribble(data)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown --kind %q (board or scribble)", kind)
			}
			b := builder.New(builder.WithLogger(a.log.Named("builder")))
			out, _ := builder.Insert(nil, b.BuildAll(raws), mode)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "board", "payload kind: board or scribble")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
