package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pcornish/rig/pkg/logging"
)

// Request asks the user a single yes/no question before an action.
type Request struct {
	// Title is the short question, e.g. "Replace ~/.zshrc with a symlink?".
	Title string
	// Description adds detail shown under the title, if any.
	Description string
	// Default is the answer applied on plain Enter and in
	// non-interactive mode.
	Default bool
	// Destructive marks prompts that guard data-removing actions; a
	// defaulted "no" on these is surfaced as a warning by the caller.
	Destructive bool
}

// Response carries the answer and whether a human actually gave it.
type Response struct {
	Approved bool
	// Answered is false when the default was applied without asking
	// (no terminal attached, or --yes).
	Answered bool
}

// Prompter collects confirmations.
type Prompter interface {
	Confirm(req Request) (Response, error)
}

// ConsolePrompter prompts on the terminal. With no terminal attached or
// with assume-defaults enabled it applies defaults without blocking, so
// automated runs never hang on a question.
type ConsolePrompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewConsolePrompter builds a prompter on stdin/stdout. assumeDefaults
// corresponds to the --yes flag.
func NewConsolePrompter(assumeDefaults bool) *ConsolePrompter {
	return &ConsolePrompter{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: StdinIsTerminal() && !assumeDefaults,
	}
}

// NewPrompterForTest builds a prompter with explicit streams and
// interactivity, for tests.
func NewPrompterForTest(in io.Reader, out io.Writer, interactive bool) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out, interactive: interactive}
}

// Confirm asks the question, or applies the default when not
// interactive.
func (p *ConsolePrompter) Confirm(req Request) (Response, error) {
	logger := logging.GetLogger("ui.prompt")

	if !p.interactive {
		logger.Debug().
			Str("title", req.Title).
			Bool("default", req.Default).
			Msg("non-interactive, applying default answer")
		return Response{Approved: req.Default, Answered: false}, nil
	}

	marker := "[y/N]"
	if req.Default {
		marker = "[Y/n]"
	}

	if req.Description != "" {
		fmt.Fprintln(p.out, req.Description)
	}
	fmt.Fprintf(p.out, "%s %s: ", req.Title, marker)

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Response{}, fmt.Errorf("failed to read answer: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return Response{Approved: req.Default, Answered: true}, nil
	}
	return Response{Approved: answer == "y" || answer == "yes", Answered: true}, nil
}
