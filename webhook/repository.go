package webhook

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 */

// Reader provides read access to retained webhooks
type Reader interface {
	// Snapshot returns a copy of every retained record, oldest first
	Snapshot() []Record
	// Recent returns a copy of the last n records, oldest first
	Recent(n int) []Record
	// Tail returns the last n records and the total count from one state
	Tail(n int) ([]Record, int)
	Len() int
}

// Writer provides write access to retained webhooks
type Writer interface {
	/* Append stores a record at the tail
	 * Implementations drop the oldest records once their capacity is exceeded
	 */
	Append(record Record) error
}

type Repository interface {
	Reader
	Writer
}
