package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"golang.org/x/text/cases"

	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

// Confirmer asks the user a yes/no question.
// Cancelling ctx abandons the question with errors.ErrCanceled.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// LinePrompter reads y/n answers one line at a time.
// Answers are compared after Unicode case folding; anything other than
// exactly y or n asks again. End of input declines.
type LinePrompter struct {
	in    io.Reader
	out   io.Writer
	fold  cases.Caser
	once  sync.Once
	lines chan scannedLine
}

type scannedLine struct {
	text string
	err  error
}

// NewLinePrompterWithIO creates a prompter reading answers from in.
func NewLinePrompterWithIO(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    in,
		out:   out,
		fold:  cases.Fold(),
		lines: make(chan scannedLine),
	}
}

// scan feeds lines from in to p.lines until end of input. Reads block, so
// they run in their own goroutine and Confirm can give up on ctx instead.
func (p *LinePrompter) scan() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scannedLine{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		p.lines <- scannedLine{err: err}
	}
	close(p.lines)
}

// Confirm implements Confirmer.
func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.once.Do(func() { go p.scan() })

	for {
		_, _ = fmt.Fprintf(p.out, "%s (y/n): ", question)

		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(p.out)
			return false, fmt.Errorf("%w: %w", pioerrors.ErrCanceled, ctx.Err())

		case line, ok := <-p.lines:
			if !ok {
				_, _ = fmt.Fprintln(p.out)
				return false, nil
			}
			if line.err != nil {
				return false, fmt.Errorf("failed to read answer: %w", line.err)
			}

			switch p.fold.String(line.text) {
			case "y":
				return true, nil
			case "n":
				return false, nil
			}
		}
	}
}

// FormConfirmer asks with an interactive huh confirm form.
type FormConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewFormConfirmer creates a form confirmer bound to in and out.
func NewFormConfirmer(in io.Reader, out io.Writer) *FormConfirmer {
	return &FormConfirmer{in: in, out: out}
}

// Confirm implements Confirmer. Aborting the form (ctrl+c) is reported as
// a cancellation.
func (f *FormConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	var ok bool

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithProgramOptions(tea.WithInput(f.in), tea.WithOutput(f.out)).RunWithContext(ctx)
	if ctx.Err() != nil {
		return false, fmt.Errorf("%w: %w", pioerrors.ErrCanceled, ctx.Err())
	}
	if errors.Is(err, huh.ErrUserAborted) {
		return false, pioerrors.ErrCanceled
	}
	if err != nil {
		return false, fmt.Errorf("form error: %w", err)
	}

	return ok, nil
}

// newConfirmer picks the form when interactive mode is wanted and in is a
// terminal, and the line prompter otherwise.
func newConfirmer(interactive bool, in io.Reader, out io.Writer) Confirmer {
	if interactive && isTerminal(in) {
		return NewFormConfirmer(in, out)
	}
	return NewLinePrompterWithIO(in, out)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
