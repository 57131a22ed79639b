// Package prompts assembles the message list sent to a model. A prompt is an
// ordered list of sections rendered under a token budget: fixed sections
// (instructions, templates) render first, and the conversation history fills
// whatever budget remains. A Prompt is itself a Section, so prompts nest.
package prompts
