// Package op defines the opcodes of the AISL virtual machine and metadata
// describing each opcode's operand shape.
package op

// Code is an opcode understood by the virtual machine.
type Code uint16

// OperandKind describes the inline operand carried by an instruction.
type OperandKind int

const (
	// OperandNone means the instruction has no inline operand.
	OperandNone OperandKind = iota
	// OperandInt is a signed 64-bit immediate.
	OperandInt
	// OperandUInt is an unsigned 32-bit index (local slot, global slot).
	OperandUInt
	// OperandFloat is a 64-bit float immediate.
	OperandFloat
	// OperandBool is a boolean immediate.
	OperandBool
	// OperandString is an index into the program string pool.
	OperandString
	// OperandJump is an absolute instruction index.
	OperandJump
	// OperandCall is a function-table index plus an argument count.
	OperandCall
)

const (
	Nop Code = iota

	// Stack manipulation
	PushInt
	PushFloat
	PushString
	PushBool
	PushUnit
	PushDecimal
	Pop
	Dup

	// Local and global variables
	LoadLocal
	StoreLocal
	LoadGlobal
	StoreGlobal

	// Integer arithmetic
	AddInt
	SubInt
	MulInt
	DivInt
	ModInt
	NegInt

	// Float arithmetic
	AddFloat
	SubFloat
	MulFloat
	DivFloat
	NegFloat

	// Decimal arithmetic (decimal values are exact, string-backed numbers)
	AddDecimal
	SubDecimal
	MulDecimal
	DivDecimal
	NegDecimal

	// Integer comparison
	EqInt
	NeInt
	LtInt
	GtInt
	LeInt
	GeInt

	// Float comparison
	EqFloat
	NeFloat
	LtFloat
	GtFloat
	LeFloat
	GeFloat

	// Decimal comparison
	EqDecimal
	NeDecimal
	LtDecimal
	GtDecimal
	LeDecimal
	GeDecimal

	// String and boolean equality
	EqStr
	NeStr
	EqBool
	NeBool

	// Boolean logic
	AndBool
	OrBool
	NotBool

	// Numeric casts
	CastIntFloat
	CastFloatInt
	CastIntDecimal
	CastDecimalInt
	CastFloatDecimal
	CastDecimalFloat

	// Math
	MathSqrtFloat
	MathPowFloat
	MathAbsInt
	MathAbsFloat
	MathMinInt
	MathMinFloat
	MathMaxInt
	MathMaxFloat

	// Control flow
	Jump
	JumpIfFalse
	JumpIfTrue
	Call
	Return

	// Handle-based I/O
	IOWrite
	IORead
	IOOpen
	IOClose

	// Strings
	StrLen
	StrConcat
	StrSlice
	StrGet
	StrFromInt
	StrFromFloat
	StrFromDecimal
	StrSplit
	StrTrim
	StrContains
	StrReplace
	StrStartsWith
	StrEndsWith
	StrToUpper
	StrToLower

	// Arrays
	ArrayNew
	ArrayPush
	ArrayGet
	ArraySet
	ArrayLen

	// Maps
	MapNew
	MapSet
	MapGet
	MapHas
	MapDelete
	MapLen
	MapKeys

	// JSON
	JSONParse
	JSONStringify
	JSONNewObject
	JSONNewArray
	JSONGet
	JSONSet
	JSONHas
	JSONDelete
	JSONPush
	JSONLength
	JSONType

	// Result values
	ResultOk
	ResultErr
	ResultIsOk
	ResultIsErr
	ResultUnwrap
	ResultUnwrapOr
	ResultErrorCode
	ResultErrorMsg

	// Result-typed file operations
	FileReadResult
	FileWriteResult
	FileAppendResult

	// HTTP client
	HTTPGet
	HTTPPost
	HTTPPut
	HTTPDelete
	HTTPRequest
	HTTPGetStatus
	HTTPGetBody
	HTTPGetHeader
	HTTPSetHeader

	// WebSocket
	WSConnect
	WSSend
	WSReceive
	WSClose

	// Files and directories
	FileRead
	FileWrite
	FileAppend
	FileExists
	FileDelete
	FileSize
	FileMtime
	DirList
	DirCreate
	DirDelete

	// Regular expressions
	RegexCompile
	RegexMatch
	RegexFind
	RegexFindAll
	RegexReplace

	// Crypto and encoding
	CryptoSHA256
	CryptoMD5
	CryptoHMACSHA256
	Base64Encode
	Base64Decode

	// Time
	TimeNow
	TimeFormat
	TimeParse

	// SQLite-style database access
	SQLiteOpen
	SQLiteClose
	SQLiteExec
	SQLiteQuery
	SQLitePrepare
	SQLiteBind
	SQLiteStep
	SQLiteColumn
	SQLiteReset
	SQLiteFinalize

	// Processes
	ProcessSpawn
	ProcessExec
	ProcessWait
	ProcessKill
	ProcessPipe
	ProcessRead
	ProcessWrite

	// Sockets
	TCPListen
	TCPAccept
	TCPConnect
	TCPTLSConnect
	TCPSend
	TCPReceive
	TCPClose
	UDPSocket
	UDPBind
	UDPSendTo
	UDPReceiveFrom

	// Standard input
	StdinRead
	StdinReadAll

	// Foreign function interface
	FFILoad
	FFICall
	FFIAvailable
	FFIClose

	// Async tasks
	AsyncCreate
	AsyncAwait
	AsyncSleep
	AsyncSpawn
	AsyncSelect

	// Garbage collector introspection
	GCCollect
	GCStats

	// Threads and channels
	Spawn
	ChannelNew
	ChannelSend
	ChannelRecv

	// Termination and printing
	Halt
	PrintDebug
	PrintInt
	PrintFloat
	PrintStr
	PrintBool
	PrintDecimal
	PrintArray
	PrintMap

	// CodeCount is the number of defined opcodes.
	CodeCount
)

// Info holds metadata about one opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandKind
}

var infos [CodeCount]Info

var ops = []Info{
	{Nop, "NOP", OperandNone},

	{PushInt, "PUSH_INT", OperandInt},
	{PushFloat, "PUSH_FLOAT", OperandFloat},
	{PushString, "PUSH_STRING", OperandString},
	{PushBool, "PUSH_BOOL", OperandBool},
	{PushUnit, "PUSH_UNIT", OperandNone},
	{PushDecimal, "PUSH_DECIMAL", OperandString},
	{Pop, "POP", OperandNone},
	{Dup, "DUP", OperandNone},

	{LoadLocal, "LOAD_LOCAL", OperandUInt},
	{StoreLocal, "STORE_LOCAL", OperandUInt},
	{LoadGlobal, "LOAD_GLOBAL", OperandUInt},
	{StoreGlobal, "STORE_GLOBAL", OperandUInt},

	{AddInt, "ADD_INT", OperandNone},
	{SubInt, "SUB_INT", OperandNone},
	{MulInt, "MUL_INT", OperandNone},
	{DivInt, "DIV_INT", OperandNone},
	{ModInt, "MOD_INT", OperandNone},
	{NegInt, "NEG_INT", OperandNone},

	{AddFloat, "ADD_FLOAT", OperandNone},
	{SubFloat, "SUB_FLOAT", OperandNone},
	{MulFloat, "MUL_FLOAT", OperandNone},
	{DivFloat, "DIV_FLOAT", OperandNone},
	{NegFloat, "NEG_FLOAT", OperandNone},

	{AddDecimal, "ADD_DECIMAL", OperandNone},
	{SubDecimal, "SUB_DECIMAL", OperandNone},
	{MulDecimal, "MUL_DECIMAL", OperandNone},
	{DivDecimal, "DIV_DECIMAL", OperandNone},
	{NegDecimal, "NEG_DECIMAL", OperandNone},

	{EqInt, "EQ_INT", OperandNone},
	{NeInt, "NEQ_INT", OperandNone},
	{LtInt, "LT_INT", OperandNone},
	{GtInt, "GT_INT", OperandNone},
	{LeInt, "LTE_INT", OperandNone},
	{GeInt, "GTE_INT", OperandNone},

	{EqFloat, "EQ_FLOAT", OperandNone},
	{NeFloat, "NE_FLOAT", OperandNone},
	{LtFloat, "LT_FLOAT", OperandNone},
	{GtFloat, "GT_FLOAT", OperandNone},
	{LeFloat, "LE_FLOAT", OperandNone},
	{GeFloat, "GE_FLOAT", OperandNone},

	{EqDecimal, "EQ_DECIMAL", OperandNone},
	{NeDecimal, "NE_DECIMAL", OperandNone},
	{LtDecimal, "LT_DECIMAL", OperandNone},
	{GtDecimal, "GT_DECIMAL", OperandNone},
	{LeDecimal, "LE_DECIMAL", OperandNone},
	{GeDecimal, "GE_DECIMAL", OperandNone},

	{EqStr, "EQ_STR", OperandNone},
	{NeStr, "NE_STR", OperandNone},
	{EqBool, "EQ_BOOL", OperandNone},
	{NeBool, "NE_BOOL", OperandNone},

	{AndBool, "AND", OperandNone},
	{OrBool, "OR", OperandNone},
	{NotBool, "NOT", OperandNone},

	{CastIntFloat, "CAST_INT_FLOAT", OperandNone},
	{CastFloatInt, "CAST_FLOAT_INT", OperandNone},
	{CastIntDecimal, "CAST_INT_DECIMAL", OperandNone},
	{CastDecimalInt, "CAST_DECIMAL_INT", OperandNone},
	{CastFloatDecimal, "CAST_FLOAT_DECIMAL", OperandNone},
	{CastDecimalFloat, "CAST_DECIMAL_FLOAT", OperandNone},

	{MathSqrtFloat, "MATH_SQRT_FLOAT", OperandNone},
	{MathPowFloat, "MATH_POW_FLOAT", OperandNone},
	{MathAbsInt, "MATH_ABS_INT", OperandNone},
	{MathAbsFloat, "MATH_ABS_FLOAT", OperandNone},
	{MathMinInt, "MATH_MIN_INT", OperandNone},
	{MathMinFloat, "MATH_MIN_FLOAT", OperandNone},
	{MathMaxInt, "MATH_MAX_INT", OperandNone},
	{MathMaxFloat, "MATH_MAX_FLOAT", OperandNone},

	{Jump, "JUMP", OperandJump},
	{JumpIfFalse, "JUMP_IF_FALSE", OperandJump},
	{JumpIfTrue, "JUMP_IF_TRUE", OperandJump},
	{Call, "CALL", OperandCall},
	{Return, "RETURN", OperandNone},

	{IOWrite, "IO_WRITE", OperandNone},
	{IORead, "IO_READ", OperandNone},
	{IOOpen, "IO_OPEN", OperandNone},
	{IOClose, "IO_CLOSE", OperandNone},

	{StrLen, "STR_LEN", OperandNone},
	{StrConcat, "STR_CONCAT", OperandNone},
	{StrSlice, "STR_SLICE", OperandNone},
	{StrGet, "STR_GET", OperandNone},
	{StrFromInt, "STR_FROM_INT", OperandNone},
	{StrFromFloat, "STR_FROM_FLOAT", OperandNone},
	{StrFromDecimal, "STR_FROM_DECIMAL", OperandNone},
	{StrSplit, "STR_SPLIT", OperandNone},
	{StrTrim, "STR_TRIM", OperandNone},
	{StrContains, "STR_CONTAINS", OperandNone},
	{StrReplace, "STR_REPLACE", OperandNone},
	{StrStartsWith, "STR_STARTS_WITH", OperandNone},
	{StrEndsWith, "STR_ENDS_WITH", OperandNone},
	{StrToUpper, "STR_TO_UPPER", OperandNone},
	{StrToLower, "STR_TO_LOWER", OperandNone},

	{ArrayNew, "ARRAY_NEW", OperandNone},
	{ArrayPush, "ARRAY_PUSH", OperandNone},
	{ArrayGet, "ARRAY_GET", OperandNone},
	{ArraySet, "ARRAY_SET", OperandNone},
	{ArrayLen, "ARRAY_LEN", OperandNone},

	{MapNew, "MAP_NEW", OperandNone},
	{MapSet, "MAP_SET", OperandNone},
	{MapGet, "MAP_GET", OperandNone},
	{MapHas, "MAP_HAS", OperandNone},
	{MapDelete, "MAP_DELETE", OperandNone},
	{MapLen, "MAP_LEN", OperandNone},
	{MapKeys, "MAP_KEYS", OperandNone},

	{JSONParse, "JSON_PARSE", OperandNone},
	{JSONStringify, "JSON_STRINGIFY", OperandNone},
	{JSONNewObject, "JSON_NEW_OBJECT", OperandNone},
	{JSONNewArray, "JSON_NEW_ARRAY", OperandNone},
	{JSONGet, "JSON_GET", OperandNone},
	{JSONSet, "JSON_SET", OperandNone},
	{JSONHas, "JSON_HAS", OperandNone},
	{JSONDelete, "JSON_DELETE", OperandNone},
	{JSONPush, "JSON_PUSH", OperandNone},
	{JSONLength, "JSON_LENGTH", OperandNone},
	{JSONType, "JSON_TYPE", OperandNone},

	{ResultOk, "RESULT_OK", OperandNone},
	{ResultErr, "RESULT_ERR", OperandNone},
	{ResultIsOk, "RESULT_IS_OK", OperandNone},
	{ResultIsErr, "RESULT_IS_ERR", OperandNone},
	{ResultUnwrap, "RESULT_UNWRAP", OperandNone},
	{ResultUnwrapOr, "RESULT_UNWRAP_OR", OperandNone},
	{ResultErrorCode, "RESULT_ERROR_CODE", OperandNone},
	{ResultErrorMsg, "RESULT_ERROR_MSG", OperandNone},

	{FileReadResult, "FILE_READ_RESULT", OperandNone},
	{FileWriteResult, "FILE_WRITE_RESULT", OperandNone},
	{FileAppendResult, "FILE_APPEND_RESULT", OperandNone},

	{HTTPGet, "HTTP_GET", OperandNone},
	{HTTPPost, "HTTP_POST", OperandNone},
	{HTTPPut, "HTTP_PUT", OperandNone},
	{HTTPDelete, "HTTP_DELETE", OperandNone},
	{HTTPRequest, "HTTP_REQUEST", OperandNone},
	{HTTPGetStatus, "HTTP_GET_STATUS", OperandNone},
	{HTTPGetBody, "HTTP_GET_BODY", OperandNone},
	{HTTPGetHeader, "HTTP_GET_HEADER", OperandNone},
	{HTTPSetHeader, "HTTP_SET_HEADER", OperandNone},

	{WSConnect, "WS_CONNECT", OperandNone},
	{WSSend, "WS_SEND", OperandNone},
	{WSReceive, "WS_RECEIVE", OperandNone},
	{WSClose, "WS_CLOSE", OperandNone},

	{FileRead, "FILE_READ", OperandNone},
	{FileWrite, "FILE_WRITE", OperandNone},
	{FileAppend, "FILE_APPEND", OperandNone},
	{FileExists, "FILE_EXISTS", OperandNone},
	{FileDelete, "FILE_DELETE", OperandNone},
	{FileSize, "FILE_SIZE", OperandNone},
	{FileMtime, "FILE_MTIME", OperandNone},
	{DirList, "DIR_LIST", OperandNone},
	{DirCreate, "DIR_CREATE", OperandNone},
	{DirDelete, "DIR_DELETE", OperandNone},

	{RegexCompile, "REGEX_COMPILE", OperandNone},
	{RegexMatch, "REGEX_MATCH", OperandNone},
	{RegexFind, "REGEX_FIND", OperandNone},
	{RegexFindAll, "REGEX_FIND_ALL", OperandNone},
	{RegexReplace, "REGEX_REPLACE", OperandNone},

	{CryptoSHA256, "CRYPTO_SHA256", OperandNone},
	{CryptoMD5, "CRYPTO_MD5", OperandNone},
	{CryptoHMACSHA256, "CRYPTO_HMAC_SHA256", OperandNone},
	{Base64Encode, "BASE64_ENCODE", OperandNone},
	{Base64Decode, "BASE64_DECODE", OperandNone},

	{TimeNow, "TIME_NOW", OperandNone},
	{TimeFormat, "TIME_FORMAT", OperandNone},
	{TimeParse, "TIME_PARSE", OperandNone},

	{SQLiteOpen, "SQLITE_OPEN", OperandNone},
	{SQLiteClose, "SQLITE_CLOSE", OperandNone},
	{SQLiteExec, "SQLITE_EXEC", OperandNone},
	{SQLiteQuery, "SQLITE_QUERY", OperandNone},
	{SQLitePrepare, "SQLITE_PREPARE", OperandNone},
	{SQLiteBind, "SQLITE_BIND", OperandNone},
	{SQLiteStep, "SQLITE_STEP", OperandNone},
	{SQLiteColumn, "SQLITE_COLUMN", OperandNone},
	{SQLiteReset, "SQLITE_RESET", OperandNone},
	{SQLiteFinalize, "SQLITE_FINALIZE", OperandNone},

	{ProcessSpawn, "PROCESS_SPAWN", OperandNone},
	{ProcessExec, "PROCESS_EXEC", OperandNone},
	{ProcessWait, "PROCESS_WAIT", OperandNone},
	{ProcessKill, "PROCESS_KILL", OperandNone},
	{ProcessPipe, "PROCESS_PIPE", OperandNone},
	{ProcessRead, "PROCESS_READ", OperandNone},
	{ProcessWrite, "PROCESS_WRITE", OperandNone},

	{TCPListen, "TCP_LISTEN", OperandNone},
	{TCPAccept, "TCP_ACCEPT", OperandNone},
	{TCPConnect, "TCP_CONNECT", OperandNone},
	{TCPTLSConnect, "TCP_TLS_CONNECT", OperandNone},
	{TCPSend, "TCP_SEND", OperandNone},
	{TCPReceive, "TCP_RECEIVE", OperandNone},
	{TCPClose, "TCP_CLOSE", OperandNone},
	{UDPSocket, "UDP_SOCKET", OperandNone},
	{UDPBind, "UDP_BIND", OperandNone},
	{UDPSendTo, "UDP_SEND_TO", OperandNone},
	{UDPReceiveFrom, "UDP_RECEIVE_FROM", OperandNone},

	{StdinRead, "STDIN_READ", OperandNone},
	{StdinReadAll, "STDIN_READ_ALL", OperandNone},

	{FFILoad, "FFI_LOAD", OperandNone},
	{FFICall, "FFI_CALL", OperandNone},
	{FFIAvailable, "FFI_AVAILABLE", OperandNone},
	{FFIClose, "FFI_CLOSE", OperandNone},

	{AsyncCreate, "ASYNC_CREATE", OperandNone},
	{AsyncAwait, "ASYNC_AWAIT", OperandNone},
	{AsyncSleep, "ASYNC_SLEEP", OperandNone},
	{AsyncSpawn, "ASYNC_SPAWN", OperandCall},
	{AsyncSelect, "ASYNC_SELECT", OperandNone},

	{GCCollect, "GC_COLLECT", OperandNone},
	{GCStats, "GC_STATS", OperandNone},

	{Spawn, "SPAWN", OperandCall},
	{ChannelNew, "CHANNEL_NEW", OperandNone},
	{ChannelSend, "CHANNEL_SEND", OperandNone},
	{ChannelRecv, "CHANNEL_RECV", OperandNone},

	{Halt, "HALT", OperandNone},
	{PrintDebug, "PRINT_DEBUG", OperandNone},
	{PrintInt, "PRINT_INT", OperandNone},
	{PrintFloat, "PRINT_FLOAT", OperandNone},
	{PrintStr, "PRINT_STR", OperandNone},
	{PrintBool, "PRINT_BOOL", OperandNone},
	{PrintDecimal, "PRINT_DECIMAL", OperandNone},
	{PrintArray, "PRINT_ARRAY", OperandNone},
	{PrintMap, "PRINT_MAP", OperandNone},
}

var mnemonics = map[string]Code{}

// Legacy width-suffixed mnemonics accepted by the text bytecode reader and
// canonicalized onto the 64-bit opcodes.
var legacyMnemonics = map[string]Code{
	"PUSH_I8":       PushInt,
	"PUSH_I16":      PushInt,
	"PUSH_I32":      PushInt,
	"PUSH_I64":      PushInt,
	"PUSH_F32":      PushFloat,
	"PUSH_F64":      PushFloat,
	"ADD_I64":       AddInt,
	"SUB_I64":       SubInt,
	"MUL_I64":       MulInt,
	"DIV_I64":       DivInt,
	"MOD_I64":       ModInt,
	"NEG_I64":       NegInt,
	"ADD_F32":       AddFloat,
	"ADD_F64":       AddFloat,
	"SUB_F32":       SubFloat,
	"SUB_F64":       SubFloat,
	"MUL_F32":       MulFloat,
	"MUL_F64":       MulFloat,
	"DIV_F32":       DivFloat,
	"DIV_F64":       DivFloat,
	"NEG_F64":       NegFloat,
	"EQ_I64":        EqInt,
	"NE_INT":        NeInt,
	"NE_I64":        NeInt,
	"LT_I64":        LtInt,
	"GT_I64":        GtInt,
	"LE_INT":        LeInt,
	"LE_I64":        LeInt,
	"GE_INT":        GeInt,
	"GE_I64":        GeInt,
	"EQ_F64":        EqFloat,
	"NE_F64":        NeFloat,
	"LT_F64":        LtFloat,
	"GT_F64":        GtFloat,
	"LE_F64":        LeFloat,
	"GE_F64":        GeFloat,
	"CAST_I64_F64":  CastIntFloat,
	"CAST_I32_F32":  CastIntFloat,
	"CAST_F64_I64":  CastFloatInt,
	"CAST_F32_I32":  CastFloatInt,
	"MATH_SQRT_F64": MathSqrtFloat,
	"MATH_POW_F64":  MathPowFloat,
	"MATH_ABS_I64":  MathAbsInt,
	"MATH_ABS_F64":  MathAbsFloat,
	"MATH_MIN_I64":  MathMinInt,
	"MATH_MIN_F64":  MathMinFloat,
	"MATH_MAX_I64":  MathMaxInt,
	"MATH_MAX_F64":  MathMaxFloat,
	"STR_FROM_I64":  StrFromInt,
	"STR_FROM_F64":  StrFromFloat,
	"PRINT_I64":     PrintInt,
	"PRINT_F64":     PrintFloat,
	"AND_BOOL":      AndBool,
	"OR_BOOL":       OrBool,
	"NOT_BOOL":      NotBool,
	"EQ_INT":        EqInt,
	"NEQ_INT":       NeInt,
	"LTE_INT":       LeInt,
	"GTE_INT":       GeInt,
}

func init() {
	for _, o := range ops {
		if infos[o.Code].Name != "" {
			panic("duplicate opcode: " + o.Name)
		}
		infos[o.Code] = o
		mnemonics[o.Name] = o.Code
	}
	for name, code := range legacyMnemonics {
		if _, ok := mnemonics[name]; !ok {
			mnemonics[name] = code
		}
	}
}

// GetInfo returns metadata for the given opcode.
func GetInfo(c Code) Info {
	if int(c) >= len(infos) {
		return Info{Code: c, Name: "UNKNOWN"}
	}
	return infos[c]
}

// Name returns the canonical mnemonic for the given opcode.
func (c Code) Name() string {
	return GetInfo(c).Name
}

// FromMnemonic resolves a mnemonic, including legacy aliases, to an opcode.
func FromMnemonic(name string) (Code, bool) {
	c, ok := mnemonics[name]
	return c, ok
}
