package edits

import (
	"fmt"
	"strings"
)

var Fonts = []string{"sans", "serif", "mono", "display", "handwritten"}

const (
	DefaultFont     = "sans"
	DefaultColor    = "#ffffff"
	DefaultTextSize = 24
)

// NewTextLayer fills in the defaults used by the text panel. The id must be
// unique for the lifetime of the asset.
func NewTextLayer(id, content string) TextLayer {
	return TextLayer{
		ID:       id,
		Content:  content,
		Font:     DefaultFont,
		Color:    DefaultColor,
		Size:     DefaultTextSize,
		Position: Position{X: 50, Y: 50},
	}
}

func AddText(layer TextLayer) (PatchFunc, error) {
	if strings.TrimSpace(layer.Content) == "" {
		return nil, fmt.Errorf("%w: text content is empty", ErrInvalidPayload)
	}
	if layer.ID == "" {
		return nil, fmt.Errorf("%w: text layer needs an id", ErrInvalidPayload)
	}
	return func(s EditState) EditState {
		s.Text = append(append(make([]TextLayer, 0, len(s.Text)+1), s.Text...), layer)
		return s
	}, nil
}

func RemoveText(id string) PatchFunc {
	return func(s EditState) EditState {
		kept := make([]TextLayer, 0, len(s.Text))
		for _, l := range s.Text {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		s.Text = kept
		return s
	}
}

// MoveText repositions a layer. Unknown ids leave the state unchanged.
func MoveText(id string, pos Position) PatchFunc {
	return func(s EditState) EditState {
		moved := append(make([]TextLayer, 0, len(s.Text)), s.Text...)
		for i := range moved {
			if moved[i].ID == id {
				moved[i].Position = pos
			}
		}
		s.Text = moved
		return s
	}
}
