package controller

import (
	"context"
	"errors"

	"screen-overlay-llm/src/llm"
	"screen-overlay-llm/src/screenshot"
)

// describeError turns a failure into the short sentence shown in the transcript.
func describeError(err error) string {
	var upstream *llm.UpstreamError
	switch {
	case errors.Is(err, llm.ErrInvalidCredential):
		return "Invalid API key. Check GROQ_API_KEY or the key file."
	case errors.Is(err, llm.ErrRateLimited):
		return "Rate limit reached. Please wait a moment and try again."
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	case errors.Is(err, llm.ErrMalformedResponse):
		return "The AI returned an empty or unreadable response."
	case errors.Is(err, llm.ErrInvalidInput):
		return "Nothing to send."
	case errors.Is(err, screenshot.ErrNoScreenSource):
		return "No screen available to capture."
	case errors.Is(err, screenshot.ErrCaptureFailed):
		return "The screen could not be captured."
	case errors.As(err, &upstream):
		if upstream.StatusCode == 0 {
			return "Could not reach the AI service: " + upstream.Message
		}
		return upstream.Message
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	}
	return err.Error()
}
