// Package labstate keeps the in-progress form input and last result of the
// Linguistic Lab tools so they survive navigation. It is a convenience
// cache, not durable storage.
package labstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"psychinsights-backend/internal/models"
)

const KeyPrefix = "lab_state_"

// Key namespaces lab state by scope token.
func Key(token string) string {
	return KeyPrefix + token
}

type InterferenceMap struct {
	L1Text         string                       `json:"l1Text"`
	L2Text         string                       `json:"l2Text"`
	TaskCategory   string                       `json:"taskCategory"`
	ContentArea    string                       `json:"contentArea"`
	AnalysisResult *models.InterferenceAnalysis `json:"analysisResult"`
}

type Etymology struct {
	Words          string                    `json:"words"`
	AnalysisResult *models.EtymologyAnalysis `json:"analysisResult"`
}

type CognitiveScanner struct {
	TextPassage    string                    `json:"textPassage"`
	AnalysisResult *models.CognitiveAnalysis `json:"analysisResult"`
}

type State struct {
	InterferenceMap  InterferenceMap  `json:"interferenceMap"`
	Etymology        Etymology        `json:"etymology"`
	CognitiveScanner CognitiveScanner `json:"cognitiveScanner"`
}

// Patch replaces whole sub-states. Nil members leave the stored value alone.
type Patch struct {
	InterferenceMap  *InterferenceMap  `json:"interferenceMap,omitempty"`
	Etymology        *Etymology        `json:"etymology,omitempty"`
	CognitiveScanner *CognitiveScanner `json:"cognitiveScanner,omitempty"`
}

func Default() State {
	return State{
		InterferenceMap: InterferenceMap{TaskCategory: "grammar"},
	}
}

func (s State) Merge(p Patch) State {
	if p.InterferenceMap != nil {
		s.InterferenceMap = *p.InterferenceMap
	}
	if p.Etymology != nil {
		s.Etymology = *p.Etymology
	}
	if p.CognitiveScanner != nil {
		s.CognitiveScanner = *p.CognitiveScanner
	}
	return s
}

// ErrCorrupt is returned with the default state when stored data cannot be
// decoded.
var ErrCorrupt = errors.New("lab state is corrupt")

// Decode overlays stored JSON onto the defaults.
func Decode(data []byte) (State, error) {
	st := Default()
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}

// Store persists one State per scope token.
type Store interface {
	Load(ctx context.Context, token string) (State, error)
	Save(ctx context.Context, token string, st State) error
}

// Update loads the current state, applies p and saves the result. Corrupt
// stored data is replaced.
func Update(ctx context.Context, store Store, token string, p Patch) (State, error) {
	current, err := store.Load(ctx, token)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return State{}, err
	}

	next := current.Merge(p)
	if err := store.Save(ctx, token, next); err != nil {
		return State{}, err
	}
	return next, nil
}
