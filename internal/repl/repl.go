package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"github.com/leengari/coltable/internal/engine"
)

// REPL is an interactive command loop over an engine
type REPL struct {
	eng         *engine.Engine
	output      io.Writer
	historyPath string
}

// New creates a REPL writing to output. An empty historyPath disables
// persistent history.
func New(eng *engine.Engine, output io.Writer, historyPath string) *REPL {
	return &REPL{
		eng:         eng,
		output:      output,
		historyPath: historyPath,
	}
}

// Loop reads commands from the terminal until exit or Ctrl-D
func (r *REPL) Loop() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	r.loadHistory(line)
	defer r.saveHistory(line)

	fmt.Fprintln(r.output, "Welcome to coltable")
	fmt.Fprintln(r.output, "Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		input, err := line.Prompt(r.prompt())
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(r.output, "Exiting")
			return
		}
		if err != nil {
			slog.Error("failed to read input", slog.Any("error", err))
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !r.OneShot(input) {
			return
		}
	}
}

// Run executes commands read line by line from in, for scripts and pipes
func (r *REPL) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if !r.OneShot(input) {
			return nil
		}
	}
	return scanner.Err()
}

// OneShot executes a single line and prints the result.
// It returns false when the line asks to quit.
func (r *REPL) OneShot(input string) bool {
	if input == "exit" || input == "\\q" {
		return false
	}

	result, err := r.eng.Execute(input)
	if err != nil {
		PrintResult(r.output, engine.ErrorResult(err))
		return true
	}
	PrintResult(r.output, result)
	return true
}

func (r *REPL) prompt() string {
	if name := r.eng.Table(); name != "" {
		return fmt.Sprintf("coltable(%s)> ", name)
	}
	return "coltable> "
}

func (r *REPL) complete(line string) []string {
	var out []string
	for _, name := range engine.CommandNames() {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}
	return out
}

func (r *REPL) loadHistory(prompt *liner.State) {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Open(r.historyPath); err == nil {
		prompt.ReadHistory(f)
		f.Close()
	}
}

func (r *REPL) saveHistory(prompt *liner.State) {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Create(r.historyPath); err == nil {
		prompt.WriteHistory(f)
		f.Close()
	}
}

// PrintResult renders a result as a message followed by a grid of rows
func PrintResult(w io.Writer, res *engine.Result) {
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
		return
	}

	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}

	if len(res.Rows) == 0 && len(res.Columns) == 0 {
		return
	}

	withIndex := len(res.RowIndexes) == len(res.Rows) && len(res.RowIndexes) > 0
	header := res.Columns
	if withIndex {
		header = append([]string{"#"}, res.Columns...)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, row := range res.Rows {
		cells := make([]string, 0, len(header))
		if withIndex {
			cells = append(cells, strconv.Itoa(res.RowIndexes[i]))
		}
		for _, col := range res.Columns {
			cells = append(cells, row[col])
		}
		tw.Append(cells)
	}
	tw.Render()
}
