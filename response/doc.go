// Package response extracts JSON objects from free-form model output.
//
// Models rarely return bare JSON: the object the caller wants is usually
// wrapped in prose, markdown fences, or preceded by discarded drafts. The
// scanner in this package walks the text for balanced brace spans, string and
// escape aware, and keeps every span that decodes to a JSON object. Callers
// that want a single value take the last object, since later output
// supersedes earlier attempts.
package response
