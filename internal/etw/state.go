package etw

import "sync/atomic"

// Control codes passed to the enable callback.
const (
	controlCodeDisable      uint32 = 0
	controlCodeEnable       uint32 = 1
	controlCodeCaptureState uint32 = 2
)

// enableState is the level and keyword masks most recently set by the enable callback.
//
// ETW combines the settings of all sessions listening to a provider before invoking
// the callback, so a single set of masks is enough.
type enableState struct {
	enabled atomic.Bool
	level   atomic.Uint32
	any     atomic.Uint64
	all     atomic.Uint64
}

func (s *enableState) update(code uint32, level uint8, any, all uint64) {
	switch code {
	case controlCodeDisable:
		s.enabled.Store(false)
		s.level.Store(0)
		s.any.Store(0)
		s.all.Store(0)
	case controlCodeEnable:
		s.level.Store(uint32(level))
		s.any.Store(any)
		s.all.Store(all)
		s.enabled.Store(true)
	}
}

// Enabled returns whether an event with level and keyword would be consumed.
//
// A level of 0 on either side matches all levels. An event keyword of 0 matches any
// session; otherwise the keyword must intersect the any-mask (if set) and contain
// every bit of the all-mask.
func (s *enableState) Enabled(level uint8, keyword uint64) bool {
	if !s.enabled.Load() {
		return false
	}
	if l := uint8(s.level.Load()); level != 0 && l != 0 && level > l {
		return false
	}
	if keyword == 0 {
		return true
	}
	if any := s.any.Load(); any != 0 && keyword&any == 0 {
		return false
	}
	all := s.all.Load()
	return keyword&all == all
}
