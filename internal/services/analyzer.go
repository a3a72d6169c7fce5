package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Shape describes the reply a JSON kind must produce.
type Shape struct {
	Arrays  []string
	Strings []StringField
	Numbers []NumberField
	// Closed drops keys the model returned beyond the declared ones.
	Closed bool
}

type StringField struct {
	Key      string
	Default  string
	Limit    int
	AnyValue bool // objects and arrays are kept as they are
	// EmptyIsMissing defaults "" too. Otherwise only absent or non-string
	// values get the default.
	EmptyIsMissing bool
}

type NumberField struct {
	Key     string
	Default float64
	Min     float64
	Max     float64
}

// Normalize coerces a parsed reply into the shape. Missing or mistyped
// arrays become empty, missing or mistyped scalars fall back to their
// defaults.
func (s Shape) Normalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	if !s.Closed {
		for k, v := range raw {
			out[k] = v
		}
	}

	for _, key := range s.Arrays {
		if arr, ok := raw[key].([]any); ok {
			out[key] = arr
		} else {
			out[key] = []any{}
		}
	}

	for _, f := range s.Strings {
		switch v := raw[f.Key].(type) {
		case string:
			if v != "" || !f.EmptyIsMissing {
				out[f.Key] = truncate(v, f.Limit)
				continue
			}
		case map[string]any, []any:
			if f.AnyValue {
				out[f.Key] = v
				continue
			}
		}
		out[f.Key] = f.Default
	}

	for _, f := range s.Numbers {
		v, ok := raw[f.Key].(float64)
		switch {
		case !ok:
			v = f.Default
		case v < f.Min:
			v = f.Min
		case v > f.Max:
			v = f.Max
		}
		out[f.Key] = v
	}

	return out
}

// Analyzer runs the shared completion flow for every analysis kind.
type Analyzer struct {
	completer   Completer
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
	kinds       map[string]*Kind
}

func NewAnalyzer(completer Completer, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *Analyzer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	kinds := make(map[string]*Kind)
	for _, k := range defaultKinds() {
		kinds[k.Name] = k
	}

	return &Analyzer{
		completer:   completer,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
		kinds:       kinds,
	}
}

// Kinds lists the registered analysis function names.
func (a *Analyzer) Kinds() []string {
	names := make([]string, 0, len(a.kinds))
	for name := range a.kinds {
		names = append(names, name)
	}
	return names
}

// Run validates payload for the named kind, asks the provider and returns
// the normalized reply.
func (a *Analyzer) Run(ctx context.Context, name string, payload map[string]any, deviceID string) (map[string]any, error) {
	kind, ok := a.kinds[name]
	if !ok {
		return nil, &NotFoundError{Message: fmt.Sprintf("Unknown analysis function: %s", name)}
	}
	if kind.RequireDevice && strings.TrimSpace(deviceID) == "" {
		return nil, &UnauthorizedError{Message: "Device identification required"}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	user, err := kind.buildUser(payload)
	if err != nil {
		return nil, err
	}

	prompt := Prompt{
		System:      kind.System,
		User:        user,
		JSON:        kind.ProseKey == "",
		Temperature: kind.Temperature,
	}

	reply, err := a.complete(ctx, kind.Name, prompt)
	if err != nil {
		return nil, a.upstreamFailure(kind.Name, err)
	}

	text := stripFences(reply)
	if kind.ProseKey != "" {
		if text == "" {
			return nil, &ParseError{Message: "No content in AI response"}
		}
		return map[string]any{kind.ProseKey: truncate(text, kind.ProseLimit)}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed == nil {
		a.logger.Warn("unparseable AI reply",
			zap.String("kind", kind.Name),
			zap.Int("reply_len", len(reply)),
			zap.Error(err),
		)
		return nil, &ParseError{Message: "Failed to parse AI response"}
	}

	return kind.Shape.Normalize(parsed), nil
}

// complete calls the provider, retrying only while it reports 503. The
// delay between attempts is fixed.
func (a *Analyzer) complete(ctx context.Context, kind string, p Prompt) (string, error) {
	for attempt := 1; ; attempt++ {
		reply, err := a.completer.Complete(ctx, p)
		if err == nil {
			return reply, nil
		}
		if !isUnavailable(err) || attempt >= a.maxAttempts {
			return "", err
		}

		a.logger.Warn("AI provider unavailable, retrying",
			zap.String("kind", kind),
			zap.Int("attempt", attempt),
			zap.Duration("delay", a.retryDelay),
		)

		timer := time.NewTimer(a.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (a *Analyzer) upstreamFailure(kind string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var up *UpstreamError
	if !errors.As(err, &up) {
		a.logger.Error("AI provider call failed", zap.String("kind", kind), zap.Error(err))
		if errors.Is(err, errEmptyReply) {
			return &ParseError{Message: "No content in AI response"}
		}
		return &UpstreamError{StatusCode: http.StatusBadGateway, Body: err.Error()}
	}

	switch up.StatusCode {
	case http.StatusTooManyRequests:
		return &RateLimitError{Message: "Rate limit exceeded. Please try again in a moment."}
	case http.StatusPaymentRequired:
		return &QuotaError{Message: "AI usage limit reached. Please check your workspace credits."}
	}

	a.logger.Error("AI provider error",
		zap.String("kind", kind),
		zap.Int("status", up.StatusCode),
		zap.String("body", up.Body),
	)
	return up
}
