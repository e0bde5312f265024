package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Command is one parsed input line
type Command struct {
	Name string
	Args []string
}

// Parse splits a line into a command name and arguments.
// Arguments may be double quoted to include spaces; \" and \\ escape
// inside quotes.
func Parse(line string) (Command, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return Command{}, err
	}
	if len(tokens) == 0 {
		return Command{}, ErrEmptyCommand
	}
	return Command{Name: strings.ToLower(tokens[0]), Args: tokens[1:]}, nil
}

func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
			cur.WriteByte(line[i+1])
			i++
		case ch == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (ch == ' ' || ch == '\t'):
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteByte(ch)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// signature describes the arguments a command accepts
type signature struct {
	usage   string
	min     int
	max     int // -1 for no upper bound
	needs   bool
	mutates bool // changes the selected table and is journaled
	summary string
}

var commands = map[string]signature{
	"help":          {usage: "help", max: 0, summary: "list commands"},
	"tables":        {usage: "tables", max: 0, summary: "list stored tables"},
	"use":           {usage: "use TABLE", min: 1, max: 1, summary: "select a table"},
	"new":           {usage: "new TABLE [COLUMN...]", min: 1, max: -1, summary: "create and select a table"},
	"columns":       {usage: "columns", max: 0, needs: true, summary: "list columns"},
	"create-column": {usage: "create-column NAME [INDEX]", min: 1, max: 2, needs: true, mutates: true, summary: "add a column, optionally before INDEX"},
	"remove-column": {usage: "remove-column NAME", min: 1, max: 1, needs: true, mutates: true, summary: "remove a column"},
	"rename-column": {usage: "rename-column OLD NEW", min: 2, max: 2, needs: true, mutates: true, summary: "rename a column"},
	"insert-row":    {usage: "insert-row [INDEX]", max: 1, needs: true, mutates: true, summary: "add an empty row, optionally before INDEX"},
	"remove-row":    {usage: "remove-row INDEX", min: 1, max: 1, needs: true, mutates: true, summary: "remove a row"},
	"clear":         {usage: "clear", max: 0, needs: true, mutates: true, summary: "remove every row"},
	"shift-row":     {usage: "shift-row FROM TO", min: 2, max: 2, needs: true, mutates: true, summary: "move a row"},
	"set":           {usage: "set ROW COLUMN VALUE...", min: 2, max: -1, needs: true, mutates: true, summary: "set a cell value"},
	"get":           {usage: "get ROW", min: 1, max: 1, needs: true, summary: "show one row"},
	"find":          {usage: "find COLUMN VALUE...", min: 1, max: -1, needs: true, summary: "show the first row whose COLUMN equals VALUE"},
	"page":          {usage: "page N [PER]", min: 1, max: 2, needs: true, summary: "show a zero-based page of rows"},
	"pages":         {usage: "pages [PER]", max: 1, needs: true, summary: "count pages"},
	"count":         {usage: "count", max: 0, needs: true, summary: "count rows and columns"},
	"save":          {usage: "save [PATH]", max: 1, needs: true, summary: "save the table, or a copy to PATH"},
}

// validate checks the argument count of cmd against its signature
func (c Command) validate() (signature, error) {
	s, ok := commands[c.Name]
	if !ok {
		return signature{}, &CommandError{Command: c.Name, Err: ErrUnknownCommand}
	}
	if len(c.Args) < s.min || (s.max >= 0 && len(c.Args) > s.max) {
		return signature{}, &CommandError{Command: c.Name, Usage: s.usage, Err: ErrUsage}
	}
	return s, nil
}

// intArg parses argument i as an integer
func (c Command) intArg(i int) (int, error) {
	n, err := strconv.Atoi(c.Args[i])
	if err != nil {
		return 0, &CommandError{
			Command: c.Name,
			Usage:   commands[c.Name].usage,
			Err:     fmt.Errorf("%w: %q is not a number", ErrUsage, c.Args[i]),
		}
	}
	return n, nil
}

// rest joins the arguments from i on with single spaces
func (c Command) rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

// String formats the command so that Parse returns it unchanged
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quote(arg))
	}
	return b.String()
}

func quote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"\\") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(arg) + `"`
}

// CommandNames returns every command name, sorted
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
