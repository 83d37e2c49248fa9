package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter supplies credentials for the interactive login.
type Prompter interface {
	Credentials(ctx context.Context) (username, password string, err error)
}

// TerminalPrompter asks for credentials on a terminal. The password is read
// without echo when In is a terminal.
type TerminalPrompter struct {
	// Host is shown in the username prompt.
	Host string
	In   *os.File
	Out  io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter returns a prompter on stdin/stderr.
func NewTerminalPrompter(host string) *TerminalPrompter {
	return &TerminalPrompter{Host: host, In: os.Stdin, Out: os.Stderr}
}

// Credentials prompts for username and password.
func (p *TerminalPrompter) Credentials(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	username, err := p.Line(fmt.Sprintf("username for %s: ", p.Host))
	if err != nil {
		return "", "", err
	}
	password, err := p.Password("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// Line prints label and reads one line of input.
func (p *TerminalPrompter) Line(label string) (string, error) {
	fmt.Fprint(p.Out, label)
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password prints label and reads a secret, without echo on terminals.
func (p *TerminalPrompter) Password(label string) (string, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return p.Line(label)
	}
	fmt.Fprint(p.Out, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
