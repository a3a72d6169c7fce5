package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Prompt is one system + user exchange sent to a provider.
type Prompt struct {
	System      string
	User        string
	JSON        bool    // ask the provider for a JSON object reply
	Temperature float32 // zero keeps the provider default
}

// Completer sends a prompt to an LLM provider and returns the reply text.
// Non-success provider answers are reported as *UpstreamError.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI provider returned status %d", e.StatusCode)
}

// Unavailable reports whether the provider said it is temporarily down.
// This is the only condition the analyzer retries.
func (e *UpstreamError) Unavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

func isUnavailable(err error) bool {
	var up *UpstreamError
	return errors.As(err, &up) && up.Unavailable()
}

var errEmptyReply = errors.New("no content in AI response")
