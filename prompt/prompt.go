// Package prompt reads answers typed on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Prompt asks questions on w and reads the answers from r, one per
// line.
type Prompt struct {
	scanner *bufio.Scanner
	w       io.Writer
	done    bool
}

// New returns a prompt over r and w.
func New(r io.Reader, w io.Writer) *Prompt {
	return &Prompt{
		scanner: bufio.NewScanner(r),
		w:       w,
	}
}

// Line reads one trimmed line. ok is false when the input is over.
func (p *Prompt) Line() (string, bool) {
	if !p.scanner.Scan() {
		p.done = true
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// Done reports whether the input is over.
func (p *Prompt) Done() bool {
	return p.done
}

// Ask shows label and the current value, and returns the typed
// answer. An empty answer keeps the current value.
func (p *Prompt) Ask(label, current string) string {
	if current != "" {
		fmt.Fprintf(p.w, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.w, "%s: ", label)
	}
	answer, ok := p.Line()
	if !ok || answer == "" {
		return current
	}
	return answer
}

// Confirm asks a yes/no question. Anything but s/sim/y/yes is a no.
func (p *Prompt) Confirm(question string) bool {
	color.New(color.FgYellow).Fprintf(p.w, "%s (s/N): ", question)
	answer, ok := p.Line()
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

// Choice shows the menu title and reads the chosen option. ok is
// false when the input is over.
func (p *Prompt) Choice(title string, options []string) (string, bool) {
	color.New(color.FgCyan).Fprintf(p.w, "\n=== %s ===\n", title)
	for _, o := range options {
		fmt.Fprintln(p.w, o)
	}
	fmt.Fprint(p.w, "\nEscolha uma opção: ")
	return p.Line()
}
