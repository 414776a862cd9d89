// Package message defines the normalized, in-process record shape that
// flows from Parser through Buffer to Shipper (spec.md §3), grounded on the
// teacher's message.Message shape but reworked as a plain value type: unlike
// the teacher's per-source Message wrapper, NormalizedLog carries no origin
// pointer back to its source file — the Tailer Manager already keys
// everything by FileIdentity, so the record itself stays transport-shaped.
package message

import "time"

// Metadata carries optional enrichment parsed out of a container-runtime
// log line (spec.md §4.3's CRI/Docker formats).
type Metadata struct {
	// Stream is "stdout" or "stderr"; empty when the format carries none.
	Stream string
	// Flag is the CRI partial/full marker ("F" or "P"); empty when absent.
	Flag string
}

// IsZero reports whether no metadata was attached.
func (m *Metadata) IsZero() bool {
	return m == nil || (m.Stream == "" && m.Flag == "")
}

// NormalizedLog is the Parser's output: one raw input line reduced to a
// timestamp, optional level, message body, optional metadata, and the
// untouched raw line (spec.md §3: "raw_line always set to the untouched
// input, trailing newline stripped").
type NormalizedLog struct {
	Timestamp time.Time
	// Level is empty when the source format carries no level field.
	Level   string
	Message string
	// Metadata is nil when the format carries none.
	Metadata *Metadata
	RawLine  string
}

// Batch is a finite, ordered group of NormalizedLog records produced by a
// single Buffer flush (spec.md §3), tagged with a monotonically increasing
// ID so the Shipper and any durability layer can reason about ordering
// without re-deriving it from record content.
type Batch struct {
	ID      uint64
	Records []NormalizedLog
}

// Len reports the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Records)
}
