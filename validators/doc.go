// Package validators decides whether a model response is acceptable and, when
// it is not, what to tell the model so the next attempt can fix it.
//
// JSONResponseValidator extracts candidate JSON objects from the response
// text, checks them against an optional schema, and turns schema violations
// into one actionable repair line per error. DefaultResponseValidator accepts
// any non-empty response and is what a wave uses when no validator is
// configured. Validators never fail the orchestration loop themselves: every
// outcome is a Validation, and feedback is replayed to the model by the
// caller, not acted on here.
package validators
