// Package tokenizer provides token counting for prompt budget management,
// with exact tiktoken counts for GPT-family models and a CJK-aware estimator
// as the fallback for everything else.
package tokenizer
