package tracelogging

import (
	"crypto/sha1" //nolint:gosec // required by the provider naming scheme, not used for security
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/Microsoft/go-winio/pkg/guid"
)

// provider traits types
const providerTraitGroup uint8 = 1

// namespace for provider ID hashing: 482C2DB2-C390-47C8-87F8-1A15BFC130FB, big endian
var providerNamespace = [16]byte{
	0x48, 0x2c, 0x2d, 0xb2, 0xc3, 0x90, 0x47, 0xc8,
	0x87, 0xf8, 0x1a, 0x15, 0xbf, 0xc1, 0x30, 0xfb,
}

// ProviderIDFromName returns the provider ID for a provider name, using the same
// algorithm as .NET EventSource and TraceLogging tools (eg, `tracelog -guid *name`).
//
// The name is case-insensitive.
func ProviderIDFromName(name string) guid.GUID {
	h := sha1.New() //nolint:gosec
	h.Write(providerNamespace[:])
	for _, c := range utf16.Encode([]rune(strings.ToUpper(name))) {
		h.Write([]byte{byte(c >> 8), byte(c)})
	}

	sum := h.Sum(nil)
	sum[7] = (sum[7] & 0x0f) | 0x50

	var a [16]byte
	copy(a[:], sum)
	return guid.FromWindowsArray(a)
}

// ProviderMetadata returns the provider traits blob, which is passed along with every
// event and when registering the provider.
//
// If group is not nil, the provider is tagged as being part of that provider group.
func ProviderMetadata(name string, group *guid.GUID) []byte {
	b := make([]byte, 2, 2+len(name)+1+19)
	b = appendCString(b, name)
	if group != nil {
		g := group.ToWindowsArray()
		b = binary.LittleEndian.AppendUint16(b, uint16(2+1+len(g)))
		b = append(b, providerTraitGroup)
		b = append(b, g[:]...)
	}
	binary.LittleEndian.PutUint16(b, uint16(len(b)))
	return b
}
