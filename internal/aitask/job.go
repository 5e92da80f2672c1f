package aitask

import (
	"errors"
	"fmt"
	"time"

	"editify-backend/internal/edits"
)

var ErrInvalidJob = errors.New("invalid ai job")

type JobKind string

const (
	JobBackground JobKind = "background"
	JobEffect     JobKind = "effect"
)

// Job describes one AI operation. Background jobs carry a Mode, effect jobs
// an Effect id.
type Job struct {
	Kind   JobKind              `json:"kind" binding:"required"`
	Mode   edits.BackgroundMode `json:"mode,omitempty"`
	Effect string               `json:"effect,omitempty"`
}

func (j Job) String() string {
	switch j.Kind {
	case JobBackground:
		return fmt.Sprintf("background:%s", j.Mode)
	case JobEffect:
		return fmt.Sprintf("effect:%s", j.Effect)
	}
	return string(j.Kind)
}

// Patch is the edit committed when the job succeeds.
func (j Job) Patch() (edits.PatchFunc, error) {
	var (
		patch edits.PatchFunc
		err   error
	)
	switch j.Kind {
	case JobBackground:
		patch, err = edits.SetBackgroundMode(j.Mode)
	case JobEffect:
		patch, err = edits.AddEffect(j.Effect)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidJob, j.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return patch, nil
}

// cadence returns the progress step and the delay between steps.
func (j Job) cadence(override time.Duration) (int, time.Duration) {
	step, delay := 10, 300*time.Millisecond
	if j.Kind == JobBackground {
		step, delay = 5, 100*time.Millisecond
	}
	if override > 0 {
		delay = override
	}
	return step, delay
}
