package eventheader

// Header flags.
const (
	FlagPointer64    uint8 = 0x01
	FlagLittleEndian uint8 = 0x02
	FlagExtension    uint8 = 0x04
)

// ExtensionKind identifies an eventheader_extension block.
type ExtensionKind uint16

const (
	ExtensionKindInvalid    ExtensionKind = 0
	ExtensionKindMetadata   ExtensionKind = 1
	ExtensionKindActivityID ExtensionKind = 2

	// ExtensionKindChainFlag is set if another extension follows this one.
	ExtensionKindChainFlag ExtensionKind = 0x8000
	extensionKindMask      ExtensionKind = 0x7fff
)

// Encoding is the storage type of a field.
type Encoding uint8

const (
	EncodingInvalid              Encoding = 0
	EncodingStruct               Encoding = 1
	EncodingValue8               Encoding = 2
	EncodingValue16              Encoding = 3
	EncodingValue32              Encoding = 4
	EncodingValue64              Encoding = 5
	EncodingValue128             Encoding = 6
	EncodingZStringChar8         Encoding = 7
	EncodingZStringChar16        Encoding = 8
	EncodingZStringChar32        Encoding = 9
	EncodingStringLength16Char8  Encoding = 10
	EncodingStringLength16Char16 Encoding = 11
	EncodingStringLength16Char32 Encoding = 12
	EncodingBinaryLength16Char8  Encoding = 13

	encodingMask Encoding = 0x1f
)

// encoding flags
const (
	encodingCArrayFlag = 0x20
	encodingVArrayFlag = 0x40
	// set on the encoding byte if a format follows, and on the format byte if a tag follows
	chainFlag = 0x80
)

// Format is the formatting hint for a field.
type Format uint8

const (
	FormatDefault      Format = 0
	FormatUnsignedInt  Format = 1
	FormatSignedInt    Format = 2
	FormatHexInt       Format = 3
	FormatErrno        Format = 4
	FormatPid          Format = 5
	FormatTime         Format = 6 // seconds since the unix epoch
	FormatBoolean      Format = 7
	FormatFloat        Format = 8
	FormatHexBytes     Format = 9
	FormatString8      Format = 10
	FormatStringUtf    Format = 11
	FormatStringUtfBom Format = 12
	FormatStringXML    Format = 13
	FormatStringJSON   Format = 14
	FormatUUID         Format = 15
	FormatPort         Format = 16
	FormatIPv4         Format = 17
	FormatIPv6         Format = 18
)

// Opcode values used by the exporter.
const (
	OpcodeInfo          uint8 = 0
	OpcodeActivityStart uint8 = 1
	OpcodeActivityStop  uint8 = 2
)

const (
	headerSize    = 8
	extensionSize = 4

	maxStructFields = 127
)
