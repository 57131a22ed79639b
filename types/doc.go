// Copyright (c) AlphaWave Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contract for the alphawave library.

types is the lowest-level public package. It depends on nothing inside the
module so every other package (validators, wave, models, bot, api) can import
it without cycles.

# Core types

  - Message: conversation message (Role, Content, ToolCalls)
  - PromptResponse: outcome of a prompt completion (status + message)
  - ResponseStatus: success / error / rate_limited / invalid_response / too_long
  - TokenUsage: prompt/completion token accounting
  - Error / ErrorCode: structured errors with HTTP status, Retryable flag, cause chain

# Capabilities

  - Context propagation: WithTraceID / WithUserID / WithConversationID / WithModel
  - Error tooling: IsRetryable / GetErrorCode / Unwrap-compatible cause chaining
  - Null-content tracking: PromptResponse.NullContent distinguishes "the model
    explicitly returned no content" from "the content failed to parse"
*/
package types
