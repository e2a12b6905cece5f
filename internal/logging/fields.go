package logging

// Standard structured field keys.
const (
	FieldComponent = "component"
	FieldVideoID   = "video_id"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldAlert     = "alert"

	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"

	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)
