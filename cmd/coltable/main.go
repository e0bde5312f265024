package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root, a := newRootCommand()

	err := root.Execute()
	// Tables changed by a failed command are still saved.
	err = errors.Join(err, a.shutdown())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
