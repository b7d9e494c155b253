package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompts shown before destructive actions.
const (
	PromptKillSwitchOn    = "Turn ON kill switch? This will block new orders until you turn it off."
	PromptDeleteConfig    = "Delete this strategy config?"
	PromptDeleteWatchlist = "Delete this watchlist?"
)

// Confirmer is the interactive gate in front of destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type confirmKey struct{}

// WithConfirmation records the user's answer for ContextConfirmer.
func WithConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, ok)
}

// ContextConfirmer answers from the request context. No answer means no.
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
})

// PromptConfirmer asks on a terminal and accepts y/yes.
type PromptConfirmer struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *PromptConfirmer) Confirm(_ context.Context, prompt string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func confirmed(ctx context.Context, c Confirmer, prompt string) bool {
	if c == nil {
		return false
	}
	return c.Confirm(ctx, prompt)
}
