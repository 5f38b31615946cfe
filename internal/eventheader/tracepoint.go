package eventheader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// tracepointFormat is the user_events field list shared by all EventHeader tracepoints.
const tracepointFormat = " u8 eventheader_flags; u8 version; u16 id; u16 tag; u8 opcode; u8 level"

// maxTracepointName is the longest tracepoint name user_events accepts.
const maxTracepointName = 255

var (
	ErrInvalidProviderName = errors.New("invalid EventHeader provider name")
	ErrInvalidGroupName    = errors.New("invalid EventHeader provider group name")
)

// TracepointName returns the tracepoint name for a provider, level, and keyword:
// "{provider}_L{level}K{keyword hex}" followed by "G{group}" if group is not empty.
func TracepointName(provider string, level uint8, keyword uint64, group string) string {
	var sb strings.Builder
	sb.Grow(len(provider) + len(group) + 24)
	sb.WriteString(provider)
	sb.WriteString("_L")
	sb.WriteString(strconv.FormatUint(uint64(level), 10))
	sb.WriteByte('K')
	sb.WriteString(strconv.FormatUint(keyword, 16))
	if group != "" {
		sb.WriteByte('G')
		sb.WriteString(group)
	}
	return sb.String()
}

// RegistrationCommand returns the user_events registration command for a tracepoint.
func RegistrationCommand(tracepoint string) string {
	return tracepoint + tracepointFormat
}

// ValidateNames checks that a provider and provider group name can be used to build tracepoint names.
//
// Provider names may contain ASCII letters, digits, and underscores; group names may
// contain lowercase ASCII letters and digits.
func ValidateNames(provider, group string) error {
	if provider == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProviderName)
	}
	for _, c := range provider {
		if !(isLower(c) || isUpper(c) || isDigit(c) || c == '_') {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidProviderName, provider, c)
		}
	}
	for _, c := range group {
		if !(isLower(c) || isDigit(c)) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidGroupName, group, c)
		}
	}
	// leave room for the longest level/keyword suffix
	if n := len(TracepointName(provider, 255, ^uint64(0), group)); n > maxTracepointName {
		return fmt.Errorf("%w: tracepoint names would be %d characters", ErrInvalidProviderName, n)
	}
	return nil
}

func isLower(c rune) bool { return 'a' <= c && c <= 'z' }
func isUpper(c rune) bool { return 'A' <= c && c <= 'Z' }
func isDigit(c rune) bool { return '0' <= c && c <= '9' }
