package genai

import (
	"errors"
	"strings"
)

// Canned replies used when no model text can be shown.
const (
	SafetyFallback = "I'm here to support you! It's great that you've recognized this issue. " +
		"Acknowledging your feelings is a significant step towards growth, and I'm here to help you through this journey."
	ErrorFallback = "I'm here to support you! Remember, every step you take is a step towards growth."
)

// SupportiveReply turns the outcome of a per-step completion into text that is always
// safe to show: safety blocks get the canned supportive message, any other failure the
// generic encouragement.
func SupportiveReply(text string, err error) string {
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		return strings.TrimSpace(text)
	case err == nil, errors.Is(err, ErrSafetyBlocked):
		return SafetyFallback
	default:
		return ErrorFallback
	}
}

// UserMessage describes a completion failure to the end user without exposing details.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSafetyBlocked):
		return SafetyFallback
	case errors.Is(err, ErrAuthInvalid):
		return "Your API key was rejected. Please check it and try again."
	case errors.Is(err, ErrQuotaExceeded):
		return "The AI service is receiving too many requests right now. Please try again in a moment."
	default:
		return "Error generating response. Please try again."
	}
}
