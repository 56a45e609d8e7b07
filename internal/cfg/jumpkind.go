package cfg

import "fmt"

// JumpKind classifies the semantic cause of a control-flow edge. The set
// mirrors the IR-level jump classification of the producing analysis engine;
// several kinds (the Sys_int* family, EmWarn/EmFail, the cache-maintenance
// kinds) are opaque tags inherited from that IR and are round-tripped
// faithfully, never interpreted here.
type JumpKind int32

const (
	JumpUnknown      JumpKind = 0
	JumpBoring       JumpKind = 1 // ordinary branch or fall-through
	JumpCall         JumpKind = 2
	JumpReturn       JumpKind = 3
	JumpFakeReturn   JumpKind = 4 // synthesized continuation after a call
	JumpSyscall      JumpKind = 5
	JumpSysSyscall   JumpKind = 6
	JumpSysInt       JumpKind = 7
	JumpSysInt32     JumpKind = 8
	JumpSysInt80     JumpKind = 9
	JumpSysInt128    JumpKind = 10
	JumpSysInt129    JumpKind = 11
	JumpSysInt130    JumpKind = 12
	JumpSysInt145    JumpKind = 13
	JumpSysInt210    JumpKind = 14
	JumpSysSysenter  JumpKind = 15
	JumpClientReq    JumpKind = 16
	JumpYield        JumpKind = 17
	JumpEmWarn       JumpKind = 18
	JumpEmFail       JumpKind = 19
	JumpNoDecode     JumpKind = 20
	JumpMapFail      JumpKind = 21
	JumpInvalICache  JumpKind = 22
	JumpFlushDCache  JumpKind = 23
	JumpNoRedir      JumpKind = 24
	JumpSigILL       JumpKind = 25
	JumpSigTRAP      JumpKind = 26
	JumpSigSEGV      JumpKind = 27
	JumpSigBUS       JumpKind = 28
	JumpSigFPE       JumpKind = 29
	JumpSigFPEIntDiv JumpKind = 30
	JumpSigFPEIntOvf JumpKind = 31
	JumpPrivileged   JumpKind = 32
)

var jumpKindNames = map[JumpKind]string{
	JumpUnknown:      "Unknown",
	JumpBoring:       "Boring",
	JumpCall:         "Call",
	JumpReturn:       "Return",
	JumpFakeReturn:   "FakeReturn",
	JumpSyscall:      "Syscall",
	JumpSysSyscall:   "Sys_syscall",
	JumpSysInt:       "Sys_int",
	JumpSysInt32:     "Sys_int32",
	JumpSysInt80:     "Sys_int80",
	JumpSysInt128:    "Sys_int128",
	JumpSysInt129:    "Sys_int129",
	JumpSysInt130:    "Sys_int130",
	JumpSysInt145:    "Sys_int145",
	JumpSysInt210:    "Sys_int210",
	JumpSysSysenter:  "Sys_sysenter",
	JumpClientReq:    "ClientReq",
	JumpYield:        "Yield",
	JumpEmWarn:       "EmWarn",
	JumpEmFail:       "EmFail",
	JumpNoDecode:     "NoDecode",
	JumpMapFail:      "MapFail",
	JumpInvalICache:  "InvalICache",
	JumpFlushDCache:  "FlushDCache",
	JumpNoRedir:      "NoRedir",
	JumpSigILL:       "SigILL",
	JumpSigTRAP:      "SigTRAP",
	JumpSigSEGV:      "SigSEGV",
	JumpSigBUS:       "SigBUS",
	JumpSigFPE:       "SigFPE",
	JumpSigFPEIntDiv: "SigFPE_IntDiv",
	JumpSigFPEIntOvf: "SigFPE_IntOvf",
	JumpPrivileged:   "Privileged",
}

// Known reports whether k is one of the named kinds. JumpUnknown counts as
// known: it is the explicit sentinel, distinct from an unmapped wire value.
func (k JumpKind) Known() bool {
	_, ok := jumpKindNames[k]
	return ok
}

func (k JumpKind) String() string {
	if name, ok := jumpKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(k))
}
