package wire

import "google.golang.org/protobuf/encoding/protowire"

// Field-number tables. Every number here is a permanently reserved wire
// position: removing a field retires its number (move it to the retired
// set), and a retired number is never reassigned. fields_test.go enforces
// both rules; keep it in sync when evolving a record.

// CodeReference fields.
const (
	refFieldTarget     protowire.Number = 1
	refFieldOperand    protowire.Number = 2
	refFieldLocation   protowire.Number = 3
	refFieldAddr       protowire.Number = 4
	refFieldMask       protowire.Number = 5
	refFieldName       protowire.Number = 6
	refFieldDataAddr   protowire.Number = 7
	refFieldBlockAddr  protowire.Number = 8
	refFieldStmtIdx    protowire.Number = 9
	refFieldOperandIdx protowire.Number = 10
	refFieldKind       protowire.Number = 11
)

// Instruction fields.
const (
	insFieldAddr          protowire.Number = 1
	insFieldBytes         protowire.Number = 2
	insFieldRef           protowire.Number = 3
	insFieldLocalNoReturn protowire.Number = 4
)

// Block fields.
const (
	blockFieldAddr        protowire.Number = 1
	blockFieldSize        protowire.Number = 2
	blockFieldBytes       protowire.Number = 3
	blockFieldInstruction protowire.Number = 4
)

// ExternalFunction fields.
const (
	funcFieldName        protowire.Number = 1
	funcFieldAddr        protowire.Number = 2
	funcFieldConvention  protowire.Number = 3
	funcFieldHasReturn   protowire.Number = 4
	funcFieldNoReturn    protowire.Number = 5
	funcFieldArgCount    protowire.Number = 6
	funcFieldIsWeak      protowire.Number = 7
	funcFieldPrototype   protowire.Number = 8
	funcFieldThreadLocal protowire.Number = 9
)

// ExternalVariable fields.
const (
	varFieldName        protowire.Number = 1
	varFieldAddr        protowire.Number = 2
	varFieldSize        protowire.Number = 3
	varFieldIsWeak      protowire.Number = 4
	varFieldThreadLocal protowire.Number = 5
)

// Edge fields. Number 7 carried the pre-map single-blob payload and is
// retired; the keyed payload lives at 8.
const (
	edgeFieldSrc       protowire.Number = 1
	edgeFieldDst       protowire.Number = 2
	edgeFieldKind      protowire.Number = 3
	edgeFieldIsOutside protowire.Number = 4
	edgeFieldInsAddr   protowire.Number = 5
	edgeFieldStmtIdx   protowire.Number = 6
	edgeFieldPayload   protowire.Number = 8
)

// Payload entry fields (one key/value pair).
const (
	payloadFieldKey   protowire.Number = 1
	payloadFieldValue protowire.Number = 2
)

// BlockGraph fields.
const (
	graphFieldEdge protowire.Number = 1
)

// Program fields.
const (
	programFieldArch     protowire.Number = 1
	programFieldBlock    protowire.Number = 2
	programFieldFunction protowire.Number = 3
	programFieldVariable protowire.Number = 4
	programFieldGraph    protowire.Number = 5
)

// recordSchema describes one record's wire layout for the schema-evolution
// test.
type recordSchema struct {
	name     string
	assigned []protowire.Number
	retired  []protowire.Number
}

func recordSchemas() []recordSchema {
	return []recordSchema{
		{
			name: "CodeReference",
			assigned: []protowire.Number{
				refFieldTarget, refFieldOperand, refFieldLocation, refFieldAddr,
				refFieldMask, refFieldName, refFieldDataAddr, refFieldBlockAddr,
				refFieldStmtIdx, refFieldOperandIdx, refFieldKind,
			},
		},
		{
			name: "Instruction",
			assigned: []protowire.Number{
				insFieldAddr, insFieldBytes, insFieldRef, insFieldLocalNoReturn,
			},
		},
		{
			name: "Block",
			assigned: []protowire.Number{
				blockFieldAddr, blockFieldSize, blockFieldBytes, blockFieldInstruction,
			},
		},
		{
			name: "ExternalFunction",
			assigned: []protowire.Number{
				funcFieldName, funcFieldAddr, funcFieldConvention, funcFieldHasReturn,
				funcFieldNoReturn, funcFieldArgCount, funcFieldIsWeak, funcFieldPrototype,
				funcFieldThreadLocal,
			},
		},
		{
			name: "ExternalVariable",
			assigned: []protowire.Number{
				varFieldName, varFieldAddr, varFieldSize, varFieldIsWeak, varFieldThreadLocal,
			},
		},
		{
			name: "Edge",
			assigned: []protowire.Number{
				edgeFieldSrc, edgeFieldDst, edgeFieldKind, edgeFieldIsOutside,
				edgeFieldInsAddr, edgeFieldStmtIdx, edgeFieldPayload,
			},
			retired: []protowire.Number{7},
		},
		{
			name:     "PayloadEntry",
			assigned: []protowire.Number{payloadFieldKey, payloadFieldValue},
		},
		{
			name:     "BlockGraph",
			assigned: []protowire.Number{graphFieldEdge},
		},
		{
			name: "Program",
			assigned: []protowire.Number{
				programFieldArch, programFieldBlock, programFieldFunction,
				programFieldVariable, programFieldGraph,
			},
		},
	}
}
