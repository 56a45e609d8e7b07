package cfg

// IndexUnknown is the explicit sentinel for statement and operand indices
// whose value the producer could not determine. It is never a real index.
const IndexUnknown int32 = -1

// CodeReference records one cross-reference: an instruction or data access
// pointing at another address.
type CodeReference struct {
	Target   TargetType
	Operand  OperandType
	Location RefLocation
	Kind     ReferenceKind

	Addr      uint64 // referenced address
	Mask      uint64 // architecture-specific mask; 0 when unused
	Name      string
	DataAddr  uint64 // address of referenced data, if TargetData
	BlockAddr uint64 // block containing the referencing instruction

	StmtIdx    int32 // IndexUnknown if not known
	OperandIdx int32 // IndexUnknown if not known

	// Unrecognized wire fields from a newer producer, re-emitted verbatim
	// on encode.
	Unrecognized []byte
}
