package displaysim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoMoreCodes ends the simulator when its code source is exhausted.
var ErrNoMoreCodes = errors.New("no more device codes")

// CodeSource supplies device codes, one per pairing attempt.
type CodeSource interface {
	NextCode(ctx context.Context) (string, error)
}

// CodeFunc adapts a function to CodeSource.
type CodeFunc func(ctx context.Context) (string, error)

// NextCode calls f.
func (f CodeFunc) NextCode(ctx context.Context) (string, error) { return f(ctx) }

// CodeList hands out codes in order, then ErrNoMoreCodes.
func CodeList(codes ...string) CodeSource {
	var (
		mu   sync.Mutex
		next int
	)
	return CodeFunc(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(codes) {
			return "", ErrNoMoreCodes
		}
		next++
		return codes[next-1], nil
	})
}

// PromptCodes asks for a code on w and reads it from r, like a person typing
// the code shown on the admin screen.
func PromptCodes(r io.Reader, w io.Writer) CodeSource {
	sc := bufio.NewScanner(r)
	var mu sync.Mutex
	return CodeFunc(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		for {
			_, _ = fmt.Fprint(w, "device code: ")
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return "", fmt.Errorf("read code: %w", err)
				}
				return "", ErrNoMoreCodes
			}
			if code := strings.TrimSpace(sc.Text()); code != "" {
				return code, nil
			}
		}
	})
}

// AdminCodes generates a fresh code through the admin API for every pairing.
func AdminCodes(c *Client, adminToken, eventID string) CodeSource {
	return CodeFunc(func(ctx context.Context) (string, error) {
		return c.GenerateCode(ctx, adminToken, eventID)
	})
}

// ChainCodes drains each source in turn.
func ChainCodes(sources ...CodeSource) CodeSource {
	var (
		mu  sync.Mutex
		idx int
	)
	return CodeFunc(func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		for idx < len(sources) {
			code, err := sources[idx].NextCode(ctx)
			if errors.Is(err, ErrNoMoreCodes) {
				idx++
				continue
			}
			return code, err
		}
		return "", ErrNoMoreCodes
	})
}
