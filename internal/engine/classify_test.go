package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwell-ai/inkwell/internal/engine"
)

func TestClassifyCredentialErrors(t *testing.T) {
	cases := []string{
		"Incorrect API key provided",
		"invalid api key",
		"Missing API key for provider",
		"Error code: 401 - invalid authentication",
		"anthropic: no key configured",
		"OpenAI credential rejected",
	}

	for _, msg := range cases {
		serr := engine.ClassifyStreamError(msg, "/settings/models")
		assert.True(t, serr.IsCredential(), "expected credential classification for %q", msg)
		assert.Equal(t, "/settings/models", serr.Remediation)
	}
}

func TestClassifyGenericErrors(t *testing.T) {
	cases := []string{
		"model overloaded, try again later",
		"context length exceeded",
		// Provider name alone must not trip the classifier.
		"openai: request timed out",
	}

	for _, msg := range cases {
		serr := engine.ClassifyStreamError(msg, "/settings/models")
		assert.False(t, serr.IsCredential(), "expected generic classification for %q", msg)
		assert.Empty(t, serr.Remediation)
		assert.Equal(t, msg, serr.Error())
	}
}
