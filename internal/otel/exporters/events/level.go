package events

import (
	"strconv"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
)

// Level is the platform event level (severity). Lower values are more severe.
//
// ETW and user_events share the same level values.
type Level uint8

const (
	LevelLogAlways     Level = 0
	LevelCritical      Level = 1
	LevelError         Level = 2
	LevelWarning       Level = 3
	LevelInformational Level = 4
	LevelVerbose       Level = 5
)

func (l Level) String() string {
	switch l {
	case LevelLogAlways:
		return "LogAlways"
	case LevelCritical:
		return "Critical"
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelInformational:
		return "Informational"
	case LevelVerbose:
		return "Verbose"
	default:
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Opcode is the platform event opcode.
type Opcode uint8

const (
	OpcodeInfo  Opcode = 0
	OpcodeStart Opcode = 1
	OpcodeStop  Opcode = 2
)

// LevelFromSeverity maps an OTel log severity (1 to 24) onto a platform level.
//
// Each group of four severities maps to one level, from Verbose (trace and debug)
// up to Critical (fatal). An unset severity is Informational.
func LevelFromSeverity(s log.Severity) Level {
	if s <= log.SeverityUndefined {
		return LevelInformational
	}
	l := 7 - ((int(s) + 3) / 4)
	switch {
	case l < int(LevelCritical):
		return LevelCritical
	case l > int(LevelVerbose):
		return LevelVerbose
	}
	return Level(l)
}

// LevelFromStatus returns the level for a completed span with the given status code.
func LevelFromStatus(c codes.Code) Level {
	switch c {
	case codes.Ok:
		return LevelInformational
	case codes.Error:
		return LevelError
	default:
		return LevelVerbose
	}
}
