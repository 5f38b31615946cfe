package events

import (
	"sync"
	"sync/atomic"
)

// encoderSource hands out encoders for the duration of one driver call.
//
// Every get must be matched by a put of the same encoder.
type encoderSource interface {
	get() Encoder
	put(Encoder)
}

// encoderPool gives each concurrent caller its own encoder.
type encoderPool struct {
	pool sync.Pool
}

func newEncoderPool(p Platform) *encoderPool {
	return &encoderPool{
		pool: sync.Pool{New: func() any { return p.NewEncoder() }},
	}
}

func (p *encoderPool) get() Encoder  { return p.pool.Get().(Encoder) }
func (p *encoderPool) put(e Encoder) { p.pool.Put(e) }

// lockedEncoder shares a single encoder, held for the whole of each call.
type lockedEncoder struct {
	mu sync.Mutex
	e  Encoder
}

func newLockedEncoder(p Platform) *lockedEncoder {
	return &lockedEncoder{e: p.NewEncoder()}
}

func (l *lockedEncoder) get() Encoder {
	l.mu.Lock()
	return l.e
}

func (l *lockedEncoder) put(Encoder) { l.mu.Unlock() }

// refCount closes the underlying provider when the last reference is released.
//
// A new refCount holds one reference.
type refCount struct {
	n     atomic.Int32
	close func() error
}

func (r *refCount) init(f func() error) {
	r.n.Store(1)
	r.close = f
}

// Retain adds a reference, which must be released with Close.
func (r *refCount) Retain() { r.n.Add(1) }

// Close releases a reference, and closes the provider if it was the last one.
// Extra calls are no-ops.
func (r *refCount) Close() error {
	switch n := r.n.Add(-1); {
	case n == 0:
		return r.close()
	case n < 0:
		r.n.Store(0)
	}
	return nil
}
