package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// command is one REPL verb.
type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	// auth commands are hidden and refused until the user logs in.
	auth bool
	run  func(ctx context.Context, args []string) error
}

func (c command) matches(name string) bool {
	if c.name == name {
		return true
	}
	for _, a := range c.aliases {
		if a == name {
			return true
		}
	}
	return false
}

// repl carries what runREPL needs besides the command table.
type repl struct {
	in       *bufio.Reader
	out      io.Writer
	signedIn func() bool
	status   func() string
	report   func(ctx context.Context, err error)
}

// runREPL reads commands from r.in until EOF or "exit"/"quit" and dispatches
// them to cmds. Handler errors go to r.report; the loop keeps running.
func runREPL(ctx context.Context, r repl, cmds []command) {
	for {
		fmt.Fprintf(r.out, "gophboard %s> ", r.status())
		line, err := readLine(r.in)
		if err != nil {
			fmt.Fprintln(r.out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := strings.ToLower(parts[0]), parts[1:]

		switch name {
		case "help":
			printHelp(r.out, cmds, r.signedIn())
			continue
		case "exit", "quit":
			fmt.Fprintln(r.out, "Bye!")
			return
		}

		cmd, ok := lookup(cmds, name)
		if !ok {
			fmt.Fprintln(r.out, "Unknown command:", name)
			continue
		}
		if cmd.auth && !r.signedIn() {
			fmt.Fprintln(r.out, "Please log in first.")
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			r.report(ctx, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func lookup(cmds []command, name string) (command, bool) {
	for _, c := range cmds {
		if c.matches(name) {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(w io.Writer, cmds []command, signedIn bool) {
	fmt.Fprintln(w, "Available commands:")
	for _, c := range cmds {
		if c.auth && !signedIn {
			continue
		}
		fmt.Fprintf(w, "  %-28s %s\n", c.usage, c.help)
	}
	fmt.Fprintf(w, "  %-28s %s\n", "help", "show this list")
	fmt.Fprintf(w, "  %-28s %s\n", "exit", "leave the program")
}
