package spanfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

var errNilWriter = errors.New("nil writer")

// maxLine is the longest span line that [Read] accepts.
const maxLine = 4 << 20

// Exporter writes spans to a span file, one JSON object per line.
type Exporter struct {
	mu sync.Mutex
	j  *jsoniter.Encoder
}

var _ tracesdk.SpanExporter = (*Exporter)(nil)

// New constructs a new Exporter writing to w.
func New(w io.Writer) (*Exporter, error) {
	if w == nil {
		return nil, errNilWriter
	}
	return &Exporter{
		j: json.NewEncoder(w),
	}, nil
}

func (e *Exporter) ExportSpans(ctx context.Context, spans []tracesdk.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.j == nil {
		return fmt.Errorf("export error: %w", errNilWriter)
	}

	var errs []error
	for _, ro := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		span := FromReadOnly(ro)
		if err := e.j.Encode(&span); err != nil {
			errs = append(errs, fmt.Errorf("encode span %q: %w", span.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops the exporter. It does not close the underlying writer.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.j = nil

	return ctx.Err()
}

// Read decodes the spans in r, one per line, and calls f with each valid span.
//
// Blank lines and invalid spans (eg, without a name or IDs) are skipped. Reading stops at
// the first decoding error or error returned by f.
func Read(r io.Reader, f func(tracesdk.ReadOnlySpan) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for n := 1; sc.Scan(); n++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var s Span
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode span on line %d: %w", n, err)
		}
		if !s.Valid() {
			continue
		}
		if err := f(s.Snapshot()); err != nil {
			return err
		}
	}
	return sc.Err()
}
