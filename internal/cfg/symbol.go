package cfg

// ExternalFunction describes a function resolved outside the analyzed object.
type ExternalFunction struct {
	Name          string // non-empty
	Addr          uint64
	Convention    CallingConvention
	HasReturn     bool
	NoReturn      bool // mutually exclusive with HasReturn
	ArgCount      int32
	IsWeak        bool
	IsThreadLocal bool
	Prototype     string // source-level prototype; empty = unknown

	Unrecognized []byte
}

// ExternalVariable describes a data symbol resolved outside the analyzed
// object.
type ExternalVariable struct {
	Name          string
	Addr          uint64
	Size          int32
	IsWeak        bool
	IsThreadLocal bool

	Unrecognized []byte
}
