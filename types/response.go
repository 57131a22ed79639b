package types

// ResponseStatus represents the outcome category of a prompt completion.
type ResponseStatus string

const (
	// StatusSuccess means the model returned a usable response.
	StatusSuccess ResponseStatus = "success"
	// StatusError means the request failed; see PromptResponse.Error.
	StatusError ResponseStatus = "error"
	// StatusRateLimited means the provider rejected the request for rate or
	// quota reasons. Retry is a caller decision.
	StatusRateLimited ResponseStatus = "rate_limited"
	// StatusInvalidResponse means the response failed validation and the
	// repair budget is exhausted; Message carries the last attempt.
	StatusInvalidResponse ResponseStatus = "invalid_response"
	// StatusTooLong means the rendered prompt exceeded the model's context
	// window before the request was sent.
	StatusTooLong ResponseStatus = "too_long"
)

// PromptResponse represents the outcome of a prompt completion.
//
// The assistant reply arrives either as a structured Message or as raw text
// in Raw, depending on the transport. NullContent marks a structured message
// whose content field was explicitly null on the wire (for example an
// assistant turn that only carries tool calls). That signal is resolved once,
// where the wire shape is known, so downstream consumers never have to
// distinguish "null content" from "content that failed to parse" themselves.
type PromptResponse struct {
	Status      ResponseStatus `json:"status"`
	Message     *Message       `json:"message,omitempty"`
	Raw         string         `json:"raw,omitempty"`
	NullContent bool           `json:"null_content,omitempty"`
	Usage       TokenUsage     `json:"usage,omitempty"`
	Model       string         `json:"model,omitempty"`
	Error       *Error         `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response wrapping an assistant message.
func NewSuccessResponse(msg Message) *PromptResponse {
	return &PromptResponse{Status: StatusSuccess, Message: &msg}
}

// NewTextResponse creates a success response from raw text.
func NewTextResponse(text string) *PromptResponse {
	return &PromptResponse{Status: StatusSuccess, Raw: text}
}

// NewErrorResponse creates an error response with the given status and error.
func NewErrorResponse(status ResponseStatus, err *Error) *PromptResponse {
	return &PromptResponse{Status: status, Error: err}
}

// Text returns the response text: the structured message content when
// present, otherwise the raw text form.
func (r *PromptResponse) Text() string {
	if r == nil {
		return ""
	}
	if r.Message != nil {
		return r.Message.Content
	}
	return r.Raw
}

// IsSuccess reports whether the completion succeeded.
func (r *PromptResponse) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}
