package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/docforge/fault"
)

func main() {
	root := &cobra.Command{
		Use:           "docforge",
		Short:         "Convert a PDF, HTML, or DOCX document into a Markdown corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(convertCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(fault.ExitCode(err))
	}
}
