package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type entryContextKeyType int

const _entryContextKey entryContextKeyType = iota

// L is the default, blank logging entry. WithField and co. all return a copy
// of the original entry, so this will not leak fields between calls.
//
// Do NOT modify fields directly, as that will corrupt state for all users.
var L = logrus.NewEntry(logrus.StandardLogger())

// G returns a [logrus.Entry] with the context set (for trace information from the [Hook]).
//
// If an entry was saved with [WithContext], that entry is returned.
func G(ctx context.Context) *logrus.Entry {
	if e := fromContext(ctx); e != nil {
		return e.WithContext(ctx)
	}
	return L.WithContext(ctx)
}

// WithContext returns a context that contains the provided log entry.
// The entry can be extracted with [G].
func WithContext(ctx context.Context, entry *logrus.Entry) (context.Context, *logrus.Entry) {
	if entry == nil {
		entry = L
	}
	entry = entry.WithContext(ctx)
	ctx = context.WithValue(ctx, _entryContextKey, entry)
	return ctx, entry
}

func fromContext(ctx context.Context) *logrus.Entry {
	e, _ := ctx.Value(_entryContextKey).(*logrus.Entry)
	return e
}
