// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldVideoID   = "video_id"
	FieldPlayID    = "play_id"
	FieldEntryID   = "entry_id"
	FieldCategory  = "category"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldEpoch    = "epoch"

	// Playback fields
	FieldVariant = "variant"
	FieldSource  = "source"
	FieldRate    = "rate"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
	FieldStatus  = "status"
)
