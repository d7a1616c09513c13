package configuration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/darkjune/eclipse/pkg/naming"
	typetostring "github.com/samber/go-type-to-string"
)

// StateMod prefixes the storage keys of game states.
const StateMod = "state"

func stateKey(name string) naming.FullName {
	return naming.NewFullName(StateMod, name)
}

// State returns the game state object of type T, creating it on first use. A state created while
// the service is initialized is loaded from storage. States are saved together with parameters.
func State[T any](ctx context.Context, s *Service) *T {
	name := typetostring.GetType[T]()

	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	if existing, ok := s.states[name]; ok {
		return existing.(*T)
	}

	state := new(T)
	s.states[name] = state

	if s.initialized.Load() {
		if err := s.loadState(ctx, name, state); err != nil {
			s.log().Warn("Failed to load state", "state", name, "error", err)
		}
	}

	return state
}

func (s *Service) loadState(ctx context.Context, name string, state any) error {
	raw, ok, err := s.storage.Load(ctx, stateKey(name))
	if err != nil || !ok {
		return err
	}
	return json.Unmarshal([]byte(raw), state)
}

// SaveStates writes every game state to storage as JSON.
func (s *Service) SaveStates(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	var errs []error
	for name, state := range s.states {
		raw, err := json.Marshal(state)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode state %s: %w", name, err))
			continue
		}
		if err := s.storage.Save(ctx, stateKey(name), string(raw)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
