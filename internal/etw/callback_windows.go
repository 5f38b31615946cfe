//go:build windows && (amd64 || arm64)

package etw

import "github.com/Microsoft/go-winio/pkg/guid"

// providerCallbackAdapter matches the ENABLECALLBACK signature on 64-bit platforms,
// where every argument fits in a register.
func providerCallbackAdapter(_ *guid.GUID, code, level, any, all, _, key uintptr) uintptr {
	providerCallback(uint32(code), uint8(level), uint64(any), uint64(all), key)
	return 0
}
