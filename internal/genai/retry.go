package genai

import (
	"context"
	"time"
)

// Retrying decorates a Completer with bounded retries. The sleep before
// attempt N+1 is Delay multiplied by N, so the backoff grows linearly. The
// last attempt's error is returned unchanged, which preserves errors.Is
// checks against provider sentinels.
type Retrying struct {
	Base     Completer
	Attempts int           // total attempts; 0 or less means 3
	Delay    time.Duration // base backoff; 0 or less means 1s
}

// Complete implements Completer.
func (r Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := r.Delay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := r.Base.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
	return "", lastErr
}
