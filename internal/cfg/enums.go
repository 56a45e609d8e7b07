// Package cfg defines the interchange data model for recovered control flow:
// blocks, instructions, cross-references, external symbols, and the edge set
// that ties them together. Entities are joined by address; the graph is a
// topology over addresses, not a container of block bodies.
package cfg

import "fmt"

// Closed enumerations. Each is a typed integer so that wire values outside
// the named range survive decode unchanged; String() renders such values as
// Unknown(n) and Known() reports whether the value is mapped.

// TargetType classifies what a cross-reference points at.
type TargetType int32

const (
	TargetCode  TargetType = 0
	TargetData  TargetType = 1
	TargetStack TargetType = 2
)

func (t TargetType) Known() bool {
	return t >= TargetCode && t <= TargetStack
}

func (t TargetType) String() string {
	switch t {
	case TargetCode:
		return "Code"
	case TargetData:
		return "Data"
	case TargetStack:
		return "Stack"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// OperandType classifies the operand through which a reference is made.
type OperandType int32

const (
	OperandImmediate          OperandType = 0
	OperandMemory             OperandType = 1
	OperandMemoryDisplacement OperandType = 2
	OperandControlFlow        OperandType = 3
	OperandOffsetTable        OperandType = 4
)

func (o OperandType) Known() bool {
	return o >= OperandImmediate && o <= OperandOffsetTable
}

func (o OperandType) String() string {
	switch o {
	case OperandImmediate:
		return "Immediate"
	case OperandMemory:
		return "Memory"
	case OperandMemoryDisplacement:
		return "MemoryDisplacement"
	case OperandControlFlow:
		return "ControlFlow"
	case OperandOffsetTable:
		return "OffsetTable"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(o))
	}
}

// RefLocation says whether a reference target lies inside or outside the
// object being analyzed.
type RefLocation int32

const (
	LocInternal RefLocation = 0
	LocExternal RefLocation = 1
)

func (l RefLocation) Known() bool {
	return l == LocInternal || l == LocExternal
}

func (l RefLocation) String() string {
	switch l {
	case LocInternal:
		return "Internal"
	case LocExternal:
		return "External"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(l))
	}
}

// ReferenceKind classifies the access a cross-reference records.
type ReferenceKind int32

const (
	RefOffset ReferenceKind = 0
	RefRead   ReferenceKind = 1
	RefWrite  ReferenceKind = 2
)

func (k ReferenceKind) Known() bool {
	return k >= RefOffset && k <= RefWrite
}

func (k ReferenceKind) String() string {
	switch k {
	case RefOffset:
		return "Offset"
	case RefRead:
		return "Read"
	case RefWrite:
		return "Write"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(k))
	}
}

// CallingConvention classifies how an external function expects its stack
// and registers managed.
type CallingConvention int32

const (
	ConvCallerCleanup CallingConvention = 0
	ConvCalleeCleanup CallingConvention = 1
	ConvFastCall      CallingConvention = 2
)

func (c CallingConvention) Known() bool {
	return c >= ConvCallerCleanup && c <= ConvFastCall
}

func (c CallingConvention) String() string {
	switch c {
	case ConvCallerCleanup:
		return "CallerCleanup"
	case ConvCalleeCleanup:
		return "CalleeCleanup"
	case ConvFastCall:
		return "FastCall"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(c))
	}
}
