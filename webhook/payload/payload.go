package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Notification is the body accepted by the webhook endpoint.
// Both fields are optional and kept as submitted.
type Notification struct {
	// Event is a string label such as "data_created". Any other JSON
	// value is kept as a json.RawMessage.
	Event any `json:"event,omitempty"`

	// Data is the event payload, kept as submitted
	Data json.RawMessage `json:"data,omitempty"`
}

// New creates a Notification with the given event label and data
func New(event string, data interface{}) (Notification, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return Notification{}, fmt.Errorf("marshaling data: %w", err)
	}

	return Notification{
		Event: event,
		Data:  dataBytes,
	}, nil
}

/* Parse decodes a webhook body.
 * An empty body, or valid JSON that is not an object, is an empty
 * notification. Only malformed JSON is an error.
 */
func Parse(body []byte) (Notification, error) {
	var n Notification
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return n, nil
	}

	if body[0] != '{' {
		if !json.Valid(body) {
			return Notification{}, fmt.Errorf("unmarshaling payload: invalid JSON")
		}
		return n, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Notification{}, fmt.Errorf("unmarshaling payload: %w", err)
	}

	// "event": null and "data": null are the same as absent fields
	if raw, ok := fields["event"]; ok && !isNull(raw) {
		n.Event = raw
		var label string
		if err := json.Unmarshal(raw, &label); err == nil {
			n.Event = label
		}
	}
	if raw, ok := fields["data"]; ok && !isNull(raw) {
		n.Data = raw
	}

	return n, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// EventLabel returns the event when it is a string, "" otherwise
func (n Notification) EventLabel() string {
	s, _ := n.Event.(string)
	return s
}

// Bytes returns the JSON-encoded notification
// The returned bytes are minified (no extra whitespace)
func (n Notification) Bytes() ([]byte, error) {
	return json.Marshal(n)
}
