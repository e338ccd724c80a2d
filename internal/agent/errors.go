package agent

import "errors"

var (
	ErrEmptyPrompt      = errors.New("prompt is required")
	ErrNoOutput         = errors.New("model returned no output message")
	ErrMaxTurnsExceeded = errors.New("conversation exceeded max tool turns")
)
