// Package cli provides interactive prompting for CLI input.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter handles interactive CLI input.
type Prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter creates a prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Prompt writes prompt and reads one line. A final line without a newline
// is accepted.
func (p *Prompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimSpace(line), err
}

// PromptSecret reads without echo when input is a terminal and falls back
// to Prompt for piped input.
func (p *Prompter) PromptSecret(prompt string) (string, error) {
	fd, ok := p.terminal()
	if !ok {
		return p.Prompt(prompt)
	}

	fmt.Fprint(p.out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(secret), nil
}

func (p *Prompter) terminal() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	return int(f.Fd()), true
}

// PromptDefault prompts for a value, keeping current when it is already set.
func (p *Prompter) PromptDefault(label, current string, secret bool) (string, error) {
	if current != "" {
		return current, nil
	}
	prompt := promptLabel(label) + ": "
	if secret {
		return p.PromptSecret(prompt)
	}
	return p.Prompt(prompt)
}

// Confirm prompts for yes/no confirmation.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Prompt(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// promptLabel turns a field name such as "display_name" into "Display Name".
func promptLabel(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool { return r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
