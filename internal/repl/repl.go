package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/minsql/minsql/internal/engine"
)

const prompt = "minsql> "

// Run reads statements line by line, executes each one, and prints the
// result envelope. It returns when input ends or on exit/quit.
func Run(executor *engine.Executor, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			fmt.Fprint(out, prompt)
			continue
		case "exit", "quit":
			return
		}

		printResult(out, executor.Execute(line))
		fmt.Fprint(out, prompt)
	}
}

func printResult(out io.Writer, res engine.Result) {
	if !res.Success {
		fmt.Fprintf(out, "ERROR: %s\n", res.Error)
		return
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	switch data := res.Data.(type) {
	case []engine.Row:
		for _, row := range data {
			fmt.Fprintf(out, "%v\n", row)
		}
	case []string:
		for _, name := range data {
			fmt.Fprintln(out, name)
		}
	case engine.Row:
		fmt.Fprintf(out, "%v\n", data)
	}
}
