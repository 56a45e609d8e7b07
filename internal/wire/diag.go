// Package wire implements the interchange encoding for recovered control
// flow: a length-prefixed, tag-based binary format (protobuf wire encoding)
// over the cfg data model. Field numbers are permanently reserved positions
// maintained by hand in fields.go; decoding never hard-fails on values or
// fields it does not recognize.
package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks truncated or structurally invalid input.
	ErrMalformed = errors.New("wire: malformed input")
	// ErrAddressOverflow marks a length or extent that would address
	// outside the 64-bit space.
	ErrAddressOverflow = errors.New("wire: address overflow")
)

// DiagKind classifies a non-fatal decode advisory.
type DiagKind string

const (
	// DiagUnknownEnum: an enum field carried a value outside the known
	// range. The raw value is kept; classification fidelity is reduced.
	DiagUnknownEnum DiagKind = "unknown_enum"
	// DiagUnknownField: a record carried a field number this decoder does
	// not know. The raw bytes are preserved and re-emitted on encode.
	DiagUnknownField DiagKind = "unknown_field"
	// DiagDuplicateEdge: a graph carried two edges with the same identity
	// key. The later record wins.
	DiagDuplicateEdge DiagKind = "duplicate_edge"
)

// Diag records one advisory: the decode completed, but with reduced
// fidelity at the given input offset.
type Diag struct {
	Offset int
	Kind   DiagKind
	Msg    string
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] offset %d: %s", d.Kind, d.Offset, d.Msg)
}

// diags accumulates advisories during one decode.
type diags struct {
	items []Diag
}

func (d *diags) addf(offset int, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}
