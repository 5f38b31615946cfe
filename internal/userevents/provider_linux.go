//go:build linux

package userevents

import (
	"encoding/binary"
	stderrors "errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/Microsoft/go-otel-etw/internal/eventheader"
	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
)

// user_events_data locations, for tracefs mounted directly or under debugfs.
var dataPaths = []string{
	"/sys/kernel/tracing/user_events_data",
	"/sys/kernel/debug/tracing/user_events_data",
}

// ioctl requests from linux/user_events.h.
const (
	diagIOCSREG   = 0xc0082a00 // _IOWR('*', 0, struct user_reg *)
	diagIOCSUNREG = 0x40082a02 // _IOW('*', 2, struct user_unreg *)
)

// userReg mirrors the packed struct user_reg.
type userReg struct {
	size       uint32
	enableBit  uint8
	enableSize uint8
	flags      uint16
	enableAddr uint64
	nameArgs   uint64
	writeIndex uint32
}

const userRegSize = 28

// userUnreg mirrors struct user_unreg.
type userUnreg struct {
	size        uint32
	disableBit  uint8
	_           uint8
	_           uint16
	disableAddr uint64
}

const userUnregSize = 16

// the kernel sets this bit in a tracepoint's enable word while it has listeners
const enableBit = 0

type tracepoint struct {
	name       string
	writeIndex uint32
	// enabled points into the provider's enable page
	enabled *uint32
}

func (t *tracepoint) isEnabled() bool {
	return atomic.LoadUint32(t.enabled)&(1<<enableBit) != 0
}

// Provider is a set of registered EventHeader tracepoints for one provider name.
//
// It is safe for concurrent use.
type Provider struct {
	name string
	f    *os.File
	// page holds one enable word per tracepoint
	page []byte
	tps  map[eventSet]*tracepoint

	// mu guards the enable page against Close
	mu       sync.RWMutex
	closed   bool
	closeErr error
}

var _ events.EventHeaderProvider = (*Provider)(nil)

type config struct {
	group string
	path  string
}

// Option configures tracepoint registration.
type Option func(*config)

// WithGroup adds the provider group suffix to every tracepoint name.
func WithGroup(group string) Option {
	return func(c *config) { c.group = group }
}

// WithDataPath overrides the user_events_data file location.
func WithDataPath(path string) Option {
	return func(c *config) { c.path = path }
}

// New registers a tracepoint for each of the (level, keyword) pairs in sets.
//
// Writes for any other pair report the event as disabled.
func New(name string, sets []events.EventSet, opts ...Option) (_ *Provider, err error) {
	var c config
	for _, o := range opts {
		o(&c)
	}
	if err := eventheader.ValidateNames(name, c.group); err != nil {
		return nil, err
	}

	f, err := openData(c.path)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		name: name,
		f:    f,
		tps:  make(map[eventSet]*tracepoint, len(sets)),
	}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()

	names := tracepointNames(name, c.group, sets)
	if len(names)*4 > os.Getpagesize() {
		return nil, errors.Errorf("too many tracepoints for provider %s: %d", name, len(names))
	}
	p.page, err = unix.Mmap(-1, 0, os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrap(err, "map user_events enable page")
	}

	i := 0
	for k, n := range names {
		tp := &tracepoint{
			name:    n,
			enabled: (*uint32)(unsafe.Pointer(&p.page[i*4])),
		}
		if err := p.register(tp); err != nil {
			return nil, err
		}
		p.tps[k] = tp
		i++
	}
	return p, nil
}

func openData(path string) (*os.File, error) {
	paths := dataPaths
	if path != "" {
		paths = []string{path}
	}
	var err error
	for _, p := range paths {
		var f *os.File
		if f, err = os.OpenFile(p, os.O_RDWR, 0); err == nil {
			return f, nil
		}
	}
	return nil, errors.Wrap(err, "open user_events_data")
}

func (p *Provider) register(tp *tracepoint) error {
	cmd := append([]byte(eventheader.RegistrationCommand(tp.name)), 0)
	reg := userReg{
		size:       userRegSize,
		enableBit:  enableBit,
		enableSize: 4,
		enableAddr: uint64(uintptr(unsafe.Pointer(tp.enabled))),
		nameArgs:   uint64(uintptr(unsafe.Pointer(&cmd[0]))),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, p.f.Fd(), diagIOCSREG, uintptr(unsafe.Pointer(&reg)))
	runtime.KeepAlive(cmd)
	if errno != 0 {
		return errors.Wrapf(errno, "register tracepoint %s", tp.name)
	}
	tp.writeIndex = reg.writeIndex
	return nil
}

func (p *Provider) unregister(tp *tracepoint) error {
	unreg := userUnreg{
		size:        userUnregSize,
		disableBit:  enableBit,
		disableAddr: uint64(uintptr(unsafe.Pointer(tp.enabled))),
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, p.f.Fd(), diagIOCSUNREG, uintptr(unsafe.Pointer(&unreg))); errno != 0 {
		return errors.Wrapf(errno, "unregister tracepoint %s", tp.name)
	}
	return nil
}

// Enabled returns whether the tracepoint for level and keyword has listeners.
func (p *Provider) Enabled(level uint8, keyword uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	tp, ok := p.tps[eventSet{level: level, keyword: keyword}]
	return ok && tp.isEnabled()
}

// WriteEvent writes an EventHeader event to the tracepoint for level and keyword.
//
// Events for unregistered or disabled tracepoints are dropped.
// errno failures are returned as an [*events.ExportError].
func (p *Provider) WriteEvent(level uint8, keyword uint64, event []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return events.NewExportError(unix.EBADF)
	}
	tp, ok := p.tps[eventSet{level: level, keyword: keyword}]
	if !ok || !tp.isEnabled() {
		return nil
	}

	var idx [4]byte
	binary.NativeEndian.PutUint32(idx[:], tp.writeIndex)
	_, err := unix.Writev(int(p.f.Fd()), [][]byte{idx[:], event})
	if err != nil {
		var errno unix.Errno
		if errors.As(err, &errno) {
			return events.NewExportError(errno)
		}
		return err
	}
	return nil
}

// Close unregisters all tracepoints.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.closeErr
	}
	p.closed = true

	var errs []error
	for _, tp := range p.tps {
		if err := p.unregister(tp); err != nil {
			errs = append(errs, err)
		}
	}
	if p.page != nil {
		if err := unix.Munmap(p.page); err != nil {
			errs = append(errs, errors.Wrap(err, "unmap user_events enable page"))
		}
	}
	if err := p.f.Close(); err != nil {
		errs = append(errs, err)
	}
	p.closeErr = stderrors.Join(errs...)
	return p.closeErr
}
