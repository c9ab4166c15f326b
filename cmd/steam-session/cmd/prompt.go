package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/session"
	"golang.org/x/term"
)

// prompter reads answers from the command's stdin, one line each.
type prompter struct {
	in  io.Reader
	out io.Writer

	lines *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:    cmd.InOrStdin(),
		out:   cmd.OutOrStdout(),
		lines: bufio.NewReader(cmd.InOrStdin()),
	}
}

// password reads a secret without echoing it when stdin is a terminal.
func (p *prompter) password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		return string(b), err
	}

	return p.line()
}

// code asks for the code of method. It is handed to the login as its code prompt.
func (p *prompter) code(method session.Method) (string, error) {
	switch method {
	case session.MethodEmailCode:
		fmt.Fprint(p.out, "Code mailed to the account: ")
	default:
		fmt.Fprint(p.out, "Steam Guard code: ")
	}

	return p.line()
}

func (p *prompter) line() (string, error) {
	line, err := p.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	return strings.TrimSpace(line), nil
}
