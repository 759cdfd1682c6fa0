package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/smsfin/internal/model"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Decision is the user's verdict on a transaction in the review queue.
type Decision string

// Review decisions.
const (
	DecisionAccept Decision = "accept"
	DecisionSkip   Decision = "skip"
	DecisionQuit   Decision = "quit"
)

type lineResult struct {
	err  error
	line string
}

// Reviewer walks the user through low-confidence transactions. Reads honour
// context cancellation so Ctrl-C works while waiting for input.
type Reviewer struct {
	reader *bufio.Reader
	writer io.Writer
	lines  chan lineResult
	start  sync.Once
}

// NewReviewer creates a reviewer reading answers from in and writing prompts to out.
func NewReviewer(in io.Reader, out io.Writer) *Reviewer {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Reviewer{
		reader: bufio.NewReader(in),
		writer: out,
		lines:  make(chan lineResult),
	}
}

// readLine returns the next trimmed input line. The underlying read runs in a
// single background goroutine for the reviewer's lifetime.
func (r *Reviewer) readLine(ctx context.Context) (string, error) {
	r.start.Do(func() {
		go func() {
			defer close(r.lines)
			for {
				line, err := r.reader.ReadString('\n')
				if line != "" || err == nil {
					r.lines <- lineResult{line: strings.TrimSpace(line)}
				}
				if err != nil {
					r.lines <- lineResult{err: err}
					return
				}
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}

// Review shows one transaction and asks what to do with it. End of input is
// treated as quit.
func (r *Reviewer) Review(ctx context.Context, txn model.StoredTransaction, position, total int) (Decision, error) {
	title := fmt.Sprintf("%s Review %d of %d", ReviewIcon, position, total)
	if _, err := fmt.Fprintln(r.writer, RenderBox(title, TransactionDetails(txn))); err != nil {
		return "", fmt.Errorf("failed to write review: %w", err)
	}

	for {
		if _, err := fmt.Fprint(r.writer, FormatPrompt("[a]ccept, [s]kip, [q]uit")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := r.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return DecisionQuit, nil
		}
		if err != nil {
			return "", err
		}

		switch strings.ToLower(line) {
		case "a", "accept", "y", "yes":
			return DecisionAccept, nil
		case "s", "skip", "n", "no", "":
			return DecisionSkip, nil
		case "q", "quit", "exit":
			return DecisionQuit, nil
		default:
			if _, err := fmt.Fprintln(r.writer, FormatWarning(fmt.Sprintf("Unknown choice %q", line))); err != nil {
				return "", fmt.Errorf("failed to write warning: %w", err)
			}
		}
	}
}
