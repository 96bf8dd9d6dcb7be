package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONPlainObject(t *testing.T) {
	var out struct {
		NextQuestion string `json:"next_question"`
	}
	err := DecodeJSON(`{"next_question": "who is the user?"}`, &out)
	assert.NoError(t, err)
	assert.Equal(t, "who is the user?", out.NextQuestion)
}

func TestDecodeJSONExtractsEmbeddedBlock(t *testing.T) {
	raw := "Sure! Here is the result:\n```json\n{\"sections\": [\"Technical Feasibility\"]}\n```\nHope that helps."

	var out struct {
		Sections []string `json:"sections"`
	}
	err := DecodeJSON(raw, &out)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Technical Feasibility"}, out.Sections)
}

func TestDecodeJSONMalformed(t *testing.T) {
	var out map[string]interface{}

	for _, raw := range []string{"", "   ", "no json here", "{broken"} {
		err := DecodeJSON(raw, &out)
		assert.True(t, errors.Is(err, ErrMalformedOutput), "raw=%q err=%v", raw, err)
	}
}
