package edits

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrPatchApplication is returned when a patch leaves the state malformed.
	ErrPatchApplication = errors.New("patch application failure")
	ErrUnknownKind      = errors.New("unknown operation kind")
	ErrInvalidPayload   = errors.New("invalid operation payload")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges, enums and text layer id uniqueness.
func Validate(s EditState) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrPatchApplication, err)
	}
	if s.Text == nil || s.Effects == nil {
		return fmt.Errorf("%w: text and effects must be lists", ErrPatchApplication)
	}
	seen := make(map[string]struct{}, len(s.Text))
	for _, l := range s.Text {
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: duplicate text layer id %q", ErrPatchApplication, l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// Apply runs patch on a private copy of s and validates the result.
func Apply(s EditState, patch PatchFunc) (EditState, error) {
	if patch == nil {
		return EditState{}, fmt.Errorf("%w: nil patch", ErrPatchApplication)
	}
	next := patch(s.Clone())
	if err := Validate(next); err != nil {
		return EditState{}, err
	}
	return next.Clone(), nil
}

// DecodeState parses a stored state. Every filter key must be present.
func DecodeState(data []byte) (EditState, error) {
	var raw struct {
		Filters map[string]json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EditState{}, fmt.Errorf("%w: %v", ErrPatchApplication, err)
	}
	for _, key := range FilterKeys {
		if _, ok := raw.Filters[string(key)]; !ok {
			return EditState{}, fmt.Errorf("%w: missing filter %q", ErrPatchApplication, key)
		}
	}

	var s EditState
	if err := json.Unmarshal(data, &s); err != nil {
		return EditState{}, fmt.Errorf("%w: %v", ErrPatchApplication, err)
	}
	if s.Text == nil {
		s.Text = []TextLayer{}
	}
	if s.Effects == nil {
		s.Effects = []Effect{}
	}
	if err := Validate(s); err != nil {
		return EditState{}, err
	}
	return s, nil
}
