package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leengari/coltable/internal/engine"
	"github.com/leengari/coltable/internal/repl"
)

const historyFile = ".coltable_history"

func newREPLCommand(a *app) *cobra.Command {
	var script string

	cmd := &cobra.Command{
		Use:   "repl [TABLE]",
		Short: "Edit tables interactively",
		Long: `Start an interactive session. Commands are read from the terminal, or
from a script file or pipe when one is given. Type 'help' for the
command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []engine.Option
			if len(args) == 1 {
				opts = append(opts, engine.WithTable(args[0]))
			}
			eng := a.newEngine(opts...)
			out := cmd.OutOrStdout()

			if script != "" {
				f, err := os.Open(script)
				if err != nil {
					return err
				}
				defer f.Close()
				return repl.New(eng, out, "").Run(f)
			}

			if !interactive(os.Stdin) {
				return repl.New(eng, out, "").Run(cmd.InOrStdin())
			}

			r := repl.New(eng, out, a.historyPath())
			r.Loop()
			return nil
		},
	}
	cmd.Flags().StringVarP(&script, "file", "f", "", "run commands from a script file")
	return cmd
}

// interactive reports whether f is a terminal rather than a pipe or file
func interactive(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (a *app) historyPath() string {
	dir, err := a.registry.Paths().Dir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, historyFile)
}
