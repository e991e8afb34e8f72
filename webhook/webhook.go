package webhook

import (
	"encoding/json"
	"time"
)

/* Record represents a received webhook notification kept in memory
 * Uses value semantics as it represents data, not behavior
 */
type Record struct {
	ReceivedAt time.Time       `json:"timestamp"`
	Event      any             `json:"event,omitempty"` // string or json.RawMessage
	Data       json.RawMessage `json:"data,omitempty"`
	RequestID  string          `json:"requestId"`
}
