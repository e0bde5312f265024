package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leengari/coltable/internal/engine"
	"github.com/leengari/coltable/internal/repl"
)

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List stored tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runOne(cmd, "", "tables")
		},
	}
}

func newNewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new TABLE [COLUMN...]",
		Short: "Create an empty table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.registry.Create(args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table '%s' created\n", args[0])
			return nil
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	var (
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "show TABLE",
		Short: "Print one page of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := "page " + strconv.Itoa(page)
			if perPage > 0 {
				line += " " + strconv.Itoa(perPage)
			}
			return a.runOne(cmd, args[0], line)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 0, "zero-based page number")
	cmd.Flags().IntVarP(&perPage, "per-page", "n", 0, "rows per page (default page_size)")
	return cmd
}

// runOne executes a single engine command and prints its result
func (a *app) runOne(cmd *cobra.Command, tableName, line string) error {
	var opts []engine.Option
	if tableName != "" {
		opts = append(opts, engine.WithTable(tableName))
	}
	res, err := a.newEngine(opts...).Execute(line)
	if err != nil {
		return err
	}
	repl.PrintResult(cmd.OutOrStdout(), res)
	return nil
}
