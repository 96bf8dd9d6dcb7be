package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput marks a generation response that could not be recovered
// as JSON. It is transient: the same prompt may well succeed on retry.
var ErrMalformedOutput = errors.New("malformed provider output")

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// DecodeJSON parses raw provider output into v. Model output is untrusted:
// first try the whole string, then fall back to the first {...} block in it
// (models love wrapping JSON in prose or code fences). If neither works the
// result wraps ErrMalformedOutput.
func DecodeJSON(raw string, v interface{}) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}

	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	block := jsonBlockRe.FindString(raw)
	if block == "" {
		return fmt.Errorf("%w: no JSON object in %q", ErrMalformedOutput, truncate(raw, 300))
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
