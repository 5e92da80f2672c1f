package edits

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PatchFunc maps one state to the next. It must not retain or mutate slices
// of its input beyond what it returns.
type PatchFunc func(EditState) EditState

// Kind is the closed set of operations the editor panels can issue.
type Kind string

const (
	KindAdjust           Kind = "adjust"
	KindResetAdjustments Kind = "reset_adjustments"
	KindFilterPreset     Kind = "filter_preset"
	KindCropAspect       Kind = "crop_aspect"
	KindRotate           Kind = "rotate"
	KindFlip             Kind = "flip"
	KindResetCrop        Kind = "reset_crop"
	KindBackgroundMode   Kind = "background_mode"
	KindBackgroundPreset Kind = "background_preset"
	KindBackgroundCustom Kind = "background_custom"
	KindTextAdd          Kind = "text_add"
	KindTextRemove       Kind = "text_remove"
	KindTextMove         Kind = "text_move"
	KindEffectAdd        Kind = "effect_add"
	KindEffectIntensity  Kind = "effect_intensity"
	KindEffectRemove     Kind = "effect_remove"
)

var Kinds = []Kind{
	KindAdjust, KindResetAdjustments, KindFilterPreset,
	KindCropAspect, KindRotate, KindFlip, KindResetCrop,
	KindBackgroundMode, KindBackgroundPreset, KindBackgroundCustom,
	KindTextAdd, KindTextRemove, KindTextMove,
	KindEffectAdd, KindEffectIntensity, KindEffectRemove,
}

type AdjustPayload struct {
	Key   FilterKey `json:"key"`
	Value float64   `json:"value"`
}

type PresetPayload struct {
	Preset string `json:"preset"`
}

type AspectPayload struct {
	Ratio AspectRatio `json:"ratio"`
}

type RotatePayload struct {
	Degrees int `json:"degrees"`
}

type FlipPayload struct {
	Axis Axis `json:"axis"`
}

type BackgroundModePayload struct {
	Mode BackgroundMode `json:"mode"`
}

type BackgroundCustomPayload struct {
	AssetID uuid.UUID `json:"asset_id"`
}

type TextAddPayload struct {
	Content  string    `json:"content"`
	Font     string    `json:"font,omitempty"`
	Color    string    `json:"color,omitempty"`
	Size     float64   `json:"size,omitempty"`
	Position *Position `json:"position,omitempty"`
}

type TextRefPayload struct {
	ID string `json:"id"`
}

type TextMovePayload struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

type EffectAddPayload struct {
	Type string `json:"type"`
}

type EffectIntensityPayload struct {
	Index     int     `json:"index"`
	Intensity float64 `json:"intensity"`
}

type EffectRefPayload struct {
	Index int `json:"index"`
}

// Build turns a wire operation into a patch. Ids for new text layers are
// generated here so that retrying the returned patch is deterministic.
func Build(kind Kind, payload json.RawMessage) (PatchFunc, error) {
	switch kind {
	case KindAdjust:
		var p AdjustPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetFilter(p.Key, p.Value)
	case KindResetAdjustments:
		return ResetFilters(), nil
	case KindFilterPreset:
		var p PresetPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return ApplyPreset(p.Preset)
	case KindCropAspect:
		var p AspectPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetAspectRatio(p.Ratio)
	case KindRotate:
		var p RotatePayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return Rotate(p.Degrees)
	case KindFlip:
		var p FlipPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return FlipAxis(p.Axis)
	case KindResetCrop:
		return ResetCrop(), nil
	case KindBackgroundMode:
		var p BackgroundModePayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetBackgroundMode(p.Mode)
	case KindBackgroundPreset:
		var p PresetPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetBackgroundPreset(p.Preset)
	case KindBackgroundCustom:
		var p BackgroundCustomPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetCustomBackground(p.AssetID)
	case KindTextAdd:
		var p TextAddPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		layer := NewTextLayer(uuid.NewString(), p.Content)
		if p.Font != "" {
			layer.Font = p.Font
		}
		if p.Color != "" {
			layer.Color = p.Color
		}
		if p.Size != 0 {
			layer.Size = p.Size
		}
		if p.Position != nil {
			layer.Position = *p.Position
		}
		return AddText(layer)
	case KindTextRemove:
		var p TextRefPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return RemoveText(p.ID), nil
	case KindTextMove:
		var p TextMovePayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return MoveText(p.ID, p.Position), nil
	case KindEffectAdd:
		var p EffectAddPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return AddEffect(p.Type)
	case KindEffectIntensity:
		var p EffectIntensityPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return SetEffectIntensity(p.Index, p.Intensity), nil
	case KindEffectRemove:
		var p EffectRefPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return RemoveEffect(p.Index), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
