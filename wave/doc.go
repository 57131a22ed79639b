// Package wave implements the AlphaWave completion loop: render a prompt,
// send it to a model, validate the response, and on failure feed the
// validator's repair instructions back into the model until the response
// validates or the repair budget runs out.
//
// Repair rounds run on a fork of the wave's memory so discarded attempts
// never pollute the conversation history; only a validated exchange is
// written back to the base memory.
package wave
