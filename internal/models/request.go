package models

import "encoding/json"

type EditRequest struct {
	Kind string `json:"kind" binding:"required"`
	// Payload is decoded according to Kind. Kinds without arguments accept
	// an empty object.
	Payload json.RawMessage `json:"payload"`
	// GestureID groups the commits of one continuous interaction, such as a
	// slider drag, into a single undo step.
	GestureID string `json:"gesture_id,omitempty"`
}

type SelectionRequest struct {
	AssetID string `json:"asset_id" binding:"required,uuid"`
	// Tab is left unchanged when omitted; an empty string closes the panel.
	Tab *string `json:"tab,omitempty"`
}

type SaveGalleryRequest struct {
	AssetID string `json:"asset_id" binding:"required,uuid"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
