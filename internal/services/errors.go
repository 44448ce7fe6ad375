package services

import "errors"

// Error kinds surfaced by the orchestrators. Each run converts its first
// internal failure into a single "error" event carrying the message.
var (
	// ErrModelUnavailable covers any failed completion call (rephrase,
	// answer or structured).
	ErrModelUnavailable = errors.New("model is at capacity, please try again later")

	// ErrPlanValidation marks a malformed query plan from the planner.
	ErrPlanValidation = errors.New("the model produced an invalid research plan")

	// ErrQueryGeneration marks a step that required search queries but
	// produced none.
	ErrQueryGeneration = errors.New("there was an error generating the search queries")

	// ErrProModeDisabled rejects pro-search requests when the deployment
	// has the feature turned off.
	ErrProModeDisabled = errors.New("pro search is not enabled")
)
