package tracelogging

// InType is the TraceLogging input (storage) type of a field.
type InType uint8

const (
	InTypeNull          InType = 0
	InTypeUnicodeString InType = 1 // nul-terminated UTF-16
	InTypeAnsiString    InType = 2 // nul-terminated 8-bit
	InTypeInt8          InType = 3
	InTypeUint8         InType = 4
	InTypeInt16         InType = 5
	InTypeUint16        InType = 6
	InTypeInt32         InType = 7
	InTypeUint32        InType = 8
	InTypeInt64         InType = 9
	InTypeUint64        InType = 10
	InTypeFloat32       InType = 11
	InTypeFloat64       InType = 12
	InTypeBool32        InType = 13
	InTypeBinary        InType = 14
	InTypeGUID          InType = 15
	InTypeFileTime      InType = 17
	InTypeSystemTime    InType = 18
	InTypeSID           InType = 19
	InTypeHexInt32      InType = 20
	InTypeHexInt64      InType = 21
	InTypeStr16         InType = 22 // u16 byte count, then UTF-16
	InTypeStr8          InType = 23 // u16 byte count, then 8-bit chars
	InTypeStruct        InType = 24
	InTypeBinaryC       InType = 25 // u16 byte count, then bytes

	inTypeMask InType = 0x1f
)

// field metadata flags, OR'ed into the InType byte
const (
	flagConstantCount = 0x20
	flagVariableCount = 0x40
	// flagChain is set on the InType byte if an OutType follows, and on the
	// OutType byte if field tags follow.
	flagChain = 0x80
)

// OutType is the TraceLogging formatting hint for a field.
type OutType uint8

const (
	OutTypeDefault     OutType = 0
	OutTypeNoPrint     OutType = 1
	OutTypeString      OutType = 2
	OutTypeBoolean     OutType = 3
	OutTypeHex         OutType = 4
	OutTypePID         OutType = 5
	OutTypeTID         OutType = 6
	OutTypePort        OutType = 7
	OutTypeIPv4        OutType = 8
	OutTypeIPv6        OutType = 9
	OutTypeSocketAddr  OutType = 10
	OutTypeXML         OutType = 11
	OutTypeJSON        OutType = 12
	OutTypeWin32Error  OutType = 13
	OutTypeNTStatus    OutType = 14
	OutTypeHResult     OutType = 15
	OutTypeFileTime    OutType = 16
	OutTypeSigned      OutType = 17
	OutTypeUnsigned    OutType = 18
	OutTypeUTF8        OutType = 35
	OutTypePKCS7       OutType = 36
	OutTypeCodePointer OutType = 37
	OutTypeDateTimeUTC OutType = 38
)

// Opcode values used by the exporter.
const (
	OpcodeInfo  uint8 = 0
	OpcodeStart uint8 = 1
	OpcodeStop  uint8 = 2
)

// ChannelTraceLogging marks an event as using TraceLogging (self-describing) metadata.
const ChannelTraceLogging uint8 = 11

// EventDescriptor mirrors the Win32 EVENT_DESCRIPTOR struct.
type EventDescriptor struct {
	ID      uint16
	Version uint8
	Channel uint8
	Level   uint8
	Opcode  uint8
	Task    uint16
	Keyword uint64
}

// maxTags is the largest (28 bit) value that can be stored as event or field tags.
const maxTags = 0x0fffffff

// maxStructFields is the most fields a struct can hold.
const maxStructFields = 127
