package edits

import "fmt"

const DefaultEffectIntensity = 50

type EffectInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Effects = []EffectInfo{
	{ID: "motionBlur", Name: "Motion Blur", Description: "Add dynamic motion blur effect"},
	{ID: "cinemagraph", Name: "Cinemagraph", Description: "Create subtle motion in still images"},
	{ID: "tiltShift", Name: "Tilt Shift", Description: "Miniature effect with selective focus"},
	{ID: "glitch", Name: "Glitch", Description: "Digital distortion effect"},
	{ID: "neon", Name: "Neon Glow", Description: "Vibrant neon light effect"},
	{ID: "duotone", Name: "Duotone", Description: "Two-color artistic effect"},
	{ID: "vignette", Name: "Vignette", Description: "Darkened edges effect"},
	{ID: "noise", Name: "Film Grain", Description: "Add vintage film grain"},
}

func IsEffect(id string) bool {
	for _, e := range Effects {
		if e.ID == id {
			return true
		}
	}
	return false
}

// AddEffect appends a new instance; repeated effects stack.
func AddEffect(effectType string) (PatchFunc, error) {
	if !IsEffect(effectType) {
		return nil, fmt.Errorf("%w: unknown effect %q", ErrInvalidPayload, effectType)
	}
	return func(s EditState) EditState {
		s.Effects = append(append(make([]Effect, 0, len(s.Effects)+1), s.Effects...),
			Effect{Type: effectType, Intensity: DefaultEffectIntensity})
		return s
	}, nil
}

// SetEffectIntensity adjusts a single instance. Out-of-range indexes leave
// the state unchanged.
func SetEffectIntensity(index int, intensity float64) PatchFunc {
	return func(s EditState) EditState {
		effects := append(make([]Effect, 0, len(s.Effects)), s.Effects...)
		if index >= 0 && index < len(effects) {
			effects[index].Intensity = intensity
		}
		s.Effects = effects
		return s
	}
}

func RemoveEffect(index int) PatchFunc {
	return func(s EditState) EditState {
		effects := make([]Effect, 0, len(s.Effects))
		for i, e := range s.Effects {
			if i != index {
				effects = append(effects, e)
			}
		}
		s.Effects = effects
		return s
	}
}
