package apiclient

import (
	"encoding/json"
	"fmt"
)

// Result is the outcome of a call that reached the server. The body is
// kept as text and, when it parses, as decoded JSON.
type Result struct {
	Status int
	JSON   any
	Raw    string
	isJSON bool
}

func newResult(status int, raw []byte) Result {
	r := Result{Status: status, Raw: string(raw)}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		r.JSON = v
		r.isJSON = true
	}
	return r
}

// IsJSON reports whether the body parsed as JSON
func (r Result) IsJSON() bool {
	return r.isJSON
}

// Decode unmarshals the body into v
func (r Result) Decode(v any) error {
	if !r.isJSON {
		return fmt.Errorf("response is not json: %q", preview(r.Raw))
	}
	if err := json.Unmarshal([]byte(r.Raw), v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Err returns a *StatusError for non-2xx responses and nil otherwise
func (r Result) Err() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	return &StatusError{Status: r.Status, Body: r.Raw}
}

func preview(s string) string {
	const limit = 120
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
