package log

import (
	"github.com/sirupsen/logrus"
)

// NopFormatter discards all entries, for when logrus output is only consumed by hooks
// (eg, the ETW hook).
type NopFormatter struct{}

var _ logrus.Formatter = NopFormatter{}

func (NopFormatter) Format(*logrus.Entry) ([]byte, error) { return nil, nil }
