package cognitive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
)

// FormatResponse extracts the answer text from the terminal message.
func FormatResponse(msg contract.Message, fallback string) string {
	if strings.TrimSpace(msg.Content) == "" {
		return fallback
	}
	return msg.Content
}

// Responses holds the user-facing texts for runs that end without an answer.
type Responses struct {
	IterationLimit string
	// ErrorTemplate has one %s verb for the failure message.
	ErrorTemplate string
}

// FailureText renders the apology shown for a failed run.
func (r Responses) FailureText(err error) string {
	if IsKind(err, KindIterationLimit) {
		if r.IterationLimit != "" {
			return r.IterationLimit
		}
		return config.DefaultIterationLimitResponse
	}
	tmpl := r.ErrorTemplate
	if tmpl == "" {
		tmpl = config.DefaultErrorResponseTemplate
	}
	return fmt.Sprintf(tmpl, failureMessage(err))
}

func failureMessage(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) && runErr.Cause != nil {
		return runErr.Cause.Error()
	}
	return err.Error()
}
