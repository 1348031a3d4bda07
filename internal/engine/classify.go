package engine

import "strings"

// ErrorKind is the classified category of a stream failure.
type ErrorKind int

const (
	// ErrorKindGeneric is any failure without a more specific class.
	ErrorKindGeneric ErrorKind = iota
	// ErrorKindCredential is a missing or invalid provider API key. It
	// surfaces a remediation action instead of a generic failure.
	ErrorKindCredential
)

// StreamError is a classified stream failure. Credential errors carry a
// remediation URL pointing at the model-settings screen.
type StreamError struct {
	Kind        ErrorKind
	Message     string
	Remediation string
}

func (e *StreamError) Error() string { return e.Message }

// IsCredential reports whether the error is a credential failure.
func (e *StreamError) IsCredential() bool { return e.Kind == ErrorKindCredential }

// Error-frame messages are a textual contract: the backend reports
// provider failures as prose, not structured codes. The patterns below
// are the single place that fragility lives; both phrase and provider
// matching can false-positive or -negative.
var credentialPhrases = []string{
	"api key",
	"api-key",
	"api_key",
	"invalid authentication",
	"authentication failed",
	"invalid credentials",
	"no credentials",
	"unauthorized",
	"401",
}

var providerNames = []string{
	"openai",
	"anthropic",
	"gemini",
	"google",
	"groq",
	"mistral",
	"deepseek",
	"openrouter",
	"ollama",
	"vertex",
	"azure",
}

// ClassifyStreamError classifies an error-frame message. settingsURL is
// attached as the remediation target for credential errors.
func ClassifyStreamError(message, settingsURL string) *StreamError {
	if isCredentialMessage(message) {
		return &StreamError{
			Kind:        ErrorKindCredential,
			Message:     message,
			Remediation: settingsURL,
		}
	}
	return &StreamError{Kind: ErrorKindGeneric, Message: message}
}

func isCredentialMessage(message string) bool {
	msg := strings.ToLower(message)

	for _, phrase := range credentialPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	// A provider name alone is not enough; it must co-occur with
	// key/credential wording.
	if strings.Contains(msg, "key") || strings.Contains(msg, "credential") {
		for _, provider := range providerNames {
			if strings.Contains(msg, provider) {
				return true
			}
		}
	}

	return false
}
