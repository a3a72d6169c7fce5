// Package scope fakes per-device tenancy on shared tables. A device keeps a
// short random token in local storage, embeds it in display names as
// "[[token]]name" and sends it as the x-device-id header. The token is a
// convenience for partitioning demo data, not an authentication boundary:
// the server enforces isolation on the persisted device_id column.
package scope

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
)

const (
	// StorageKey is the local storage key holding the token.
	StorageKey = "demo_scope_id"

	TokenLength = 5
	Prefix      = "[["
	Suffix      = "]]"

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// MaxTokenLength bounds tokens accepted from storage or the x-device-id
// header. Generated tokens are TokenLength long.
const MaxTokenLength = 64

var (
	ErrInvalidToken = errors.New("invalid scope token")

	tokenPattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9]{1,%d}$`, MaxTokenLength))
)

// ValidToken reports whether token is alphanumeric and at most
// MaxTokenLength long, so it cannot contain the "]]" delimiter.
func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// Scope hands out the device token, creating it on first use.
type Scope struct {
	mu     sync.Mutex
	source TokenSource
	token  string
}

func New(source TokenSource) *Scope {
	return &Scope{source: source}
}

// Token returns the persisted token, generating and saving one if the
// source is empty.
func (s *Scope) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	token, err := s.source.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load scope token: %w", err)
	}
	if token != "" && !ValidToken(token) {
		return "", fmt.Errorf("failed to load scope token: %w", ErrInvalidToken)
	}
	if token == "" {
		token = GenerateToken()
		if err := s.source.Save(token); err != nil {
			return "", fmt.Errorf("failed to save scope token: %w", err)
		}
	}

	s.token = token
	return token, nil
}

// Embed prefixes name with the current token.
func (s *Scope) Embed(name string) (string, error) {
	token, err := s.Token()
	if err != nil {
		return "", err
	}
	return Embed(name, token), nil
}

func (s *Scope) BelongsToCurrent(name string) bool {
	token, err := s.Token()
	if err != nil {
		return false
	}
	return BelongsTo(name, token)
}

// GenerateToken draws TokenLength characters uniformly from the
// alphanumeric alphabet.
func GenerateToken() string {
	var b strings.Builder
	b.Grow(TokenLength)
	for i := 0; i < TokenLength; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

func Embed(name, token string) string {
	return Prefix + token + Suffix + name
}

// Extract returns the embedded token. A name with "[[" but no closing "]]"
// carries no token.
func Extract(name string) (string, bool) {
	if !strings.HasPrefix(name, Prefix) {
		return "", false
	}
	end := strings.Index(name, Suffix)
	if end == -1 {
		return "", false
	}
	return name[len(Prefix):end], true
}

// Strip removes a well-formed scope prefix and returns name unchanged
// otherwise.
func Strip(name string) string {
	if !strings.HasPrefix(name, Prefix) {
		return name
	}
	end := strings.Index(name, Suffix)
	if end == -1 {
		return name
	}
	return name[end+len(Suffix):]
}

func BelongsTo(name, token string) bool {
	extracted, ok := Extract(name)
	if !ok || extracted == "" {
		return false
	}
	return extracted == token
}

// FilterByScope keeps the items whose embedded token equals token,
// preserving order.
func FilterByScope[T any](items []T, nameOf func(T) string, token string) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if BelongsTo(nameOf(item), token) {
			kept = append(kept, item)
		}
	}
	return kept
}

// Filter is FilterByScope against the current token.
func Filter[T any](s *Scope, items []T, nameOf func(T) string) ([]T, error) {
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	return FilterByScope(items, nameOf, token), nil
}
