package embeddings

import (
	"errors"
	"fmt"
	"strings"
)

// FatalError marks a provider failure that will not succeed on retry, such
// as unusable credentials. The orchestrator still moves on to the next
// provider but never retries the same one within a call.
type FatalError struct {
	Provider string
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s embeddings: %v", e.Provider, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// TransientError marks a provider failure that may succeed on retry: rate
// limits, timeouts, transient 5xx. Total provider exhaustion is also
// reported as transient so callers treat it as retryable.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s embeddings: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

var (
	transientTerms = []string{"rate", "quota", "overloaded", "timeout", "temporar", "try again"}
	fatalTerms     = []string{"api key", "invalid", "unauthorized", "forbidden"}
)

// classifyMessage is the last-resort classifier, used only when a provider's
// SDK surfaces no structured error information. Unrecognized messages
// default to transient, which lets the orchestrator fall back instead of
// failing hard.
func classifyMessage(provider string, err error) error {
	message := strings.ToLower(err.Error())
	for _, term := range transientTerms {
		if strings.Contains(message, term) {
			return &TransientError{Provider: provider, Err: err}
		}
	}
	for _, term := range fatalTerms {
		if strings.Contains(message, term) {
			return &FatalError{Provider: provider, Err: err}
		}
	}
	return &TransientError{Provider: provider, Err: err}
}

// classifyStatus maps an HTTP status from a provider's API error to the
// taxonomy. A zero or unrecognized status defers to message sniffing.
func classifyStatus(provider string, status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return &FatalError{Provider: provider, Err: err}
	case status == 408 || status == 429 || status >= 500:
		return &TransientError{Provider: provider, Err: err}
	default:
		return classifyMessage(provider, err)
	}
}
