package log

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const TimeFormat = time.RFC3339Nano

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// Format formats an object into a JSON string, without any indentation or
// HTML escapes.
//
// If the object cannot be marshalled, the error is logged and an empty string is returned.
func Format(ctx context.Context, v any) string {
	s, err := json.MarshalToString(v)
	if err != nil {
		G(ctx).WithError(err).Warning("could not format value")
		return ""
	}
	return s
}
