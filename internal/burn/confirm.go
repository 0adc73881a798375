package burn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"burnaudio/internal/discimage"
)

// Confirmer decides whether a burn proceeds.
type Confirmer interface {
	Confirm(ctx context.Context, plan discimage.Plan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan discimage.Plan) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, plan discimage.Plan) (bool, error) {
	return f(ctx, plan)
}

// PromptConfirmer asks on Out and reads the answer from In.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm accepts only "y" or "yes" (any case). End of input is a refusal.
func (p PromptConfirmer) Confirm(ctx context.Context, plan discimage.Plan) (bool, error) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, "Burn %s (%s, label %s)? [y/N] ",
			plan.ImagePath, humanize.Bytes(uint64(max(plan.ActualSizeBytes, 0))), plan.VolumeLabel)
	}

	answers := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			errs <- err
			return
		}
		answers <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errs:
		return false, fmt.Errorf("read confirmation: %w", err)
	case line := <-answers:
		return IsAffirmative(line), nil
	}
}

// IsAffirmative reports whether answer is y or yes.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
