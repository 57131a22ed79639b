// Package models defines the prompt-completion model contract and the
// built-in clients that implement it.
//
// A model takes a rendered message list and returns a types.PromptResponse.
// Transport and provider failures are reported through the response status,
// not as Go errors, so the orchestration loop can apply uniform policy to
// rate limits, upstream outages, and invalid responses. The error return of
// CompletePrompt covers request construction and context cancellation only.
//
// Two clients ship with the library: OpenAIModel speaks the OpenAI-compatible
// chat completions wire protocol (OpenAI, DeepSeek, Qwen, and most local
// gateways), and GeminiModel drives Google Gemini through the official genai
// SDK.
package models
