//go:build windows && (amd64 || arm64)

package etw

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/Microsoft/go-winio/pkg/guid"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/Microsoft/go-otel-etw/internal/otel/exporters/events"
	"github.com/Microsoft/go-otel-etw/internal/tracelogging"
)

//go:generate go run github.com/Microsoft/go-winio/tools/mkwinsyscall -output zsyscall_windows.go ./*.go

// 	ULONG EVNTAPI EventRegister(
// 	    _In_ LPCGUID ProviderId,
// 	    _In_opt_ PENABLECALLBACK EnableCallback,
// 	    _In_opt_ PVOID CallbackContext,
// 	    _Out_ PREGHANDLE RegHandle
// 	    );
//
//sys eventRegister(providerID *guid.GUID, callback uintptr, callbackContext uintptr, handle *providerHandle) (win32err error) = advapi32.EventRegister

//sys eventUnregister(handle providerHandle) (win32err error) = advapi32.EventUnregister
//sys eventSetInformation(handle providerHandle, class eventInfoClass, information *byte, length uint32) (win32err error) = advapi32.EventSetInformation
//sys eventWriteTransfer(handle providerHandle, descriptor *tracelogging.EventDescriptor, activityID *guid.GUID, relatedActivityID *guid.GUID, dataDescriptorCount uint32, dataDescriptors *eventDataDescriptor) (win32err error) = advapi32.EventWriteTransfer

// providerHandle is the REGHANDLE returned by EventRegister.
// It is passed in a single register, which limits registration to 64-bit platforms.
type providerHandle uint64

type eventInfoClass uint32

const eventProviderSetTraits eventInfoClass = 2

// eventDataDescriptorType is stored in the reserved bits of EVENT_DATA_DESCRIPTOR.
type eventDataDescriptorType uint8

const (
	eventDataDescriptorTypeUserData eventDataDescriptorType = iota
	eventDataDescriptorTypeEventMetadata
	eventDataDescriptorTypeProviderMetadata
)

// eventDataDescriptor mirrors EVENT_DATA_DESCRIPTOR.
type eventDataDescriptor struct {
	ptr      uint64
	size     uint32
	dataType eventDataDescriptorType
	_        uint8
	_        uint16
}

func newEventDataDescriptor(t eventDataDescriptorType, b []byte) eventDataDescriptor {
	if len(b) == 0 {
		return eventDataDescriptor{dataType: t}
	}
	return eventDataDescriptor{
		ptr:      uint64(uintptr(unsafe.Pointer(&b[0]))),
		size:     uint32(len(b)),
		dataType: t,
	}
}

// Provider is a registered ETW provider that writes TraceLogging events.
//
// It is safe for concurrent use.
type Provider struct {
	enableState

	name   string
	id     guid.GUID
	handle providerHandle
	// traits is the provider metadata sent with every event
	traits []byte
	key    uintptr

	closeOnce sync.Once
	closeErr  error
}

var _ events.TraceLoggingProvider = (*Provider)(nil)

type config struct {
	id    *guid.GUID
	group *guid.GUID
}

// Option configures provider registration.
type Option func(*config)

// WithID overrides the provider ID, which is otherwise derived from the name.
func WithID(id guid.GUID) Option {
	return func(c *config) { c.id = &id }
}

// WithGroup adds the provider to a provider group.
func WithGroup(group guid.GUID) Option {
	return func(c *config) { c.group = &group }
}

// New registers a new ETW provider.
//
// The provider ID is derived from name with [tracelogging.ProviderIDFromName] unless
// [WithID] is specified.
func New(name string, opts ...Option) (_ *Provider, err error) {
	var c config
	for _, o := range opts {
		o(&c)
	}

	p := &Provider{
		name:   name,
		traits: tracelogging.ProviderMetadata(name, c.group),
	}
	if c.id != nil {
		p.id = *c.id
	} else {
		p.id = tracelogging.ProviderIDFromName(name)
	}

	p.key = providers.add(p)
	defer func() {
		if err != nil {
			providers.remove(p.key)
		}
	}()

	if err := eventRegister(&p.id, callbackAddr(), p.key, &p.handle); err != nil {
		return nil, errors.Wrapf(err, "register ETW provider %s (%s)", name, p.id)
	}

	if err := eventSetInformation(p.handle, eventProviderSetTraits, &p.traits[0], uint32(len(p.traits))); err != nil {
		_ = eventUnregister(p.handle)
		return nil, errors.Wrapf(err, "set ETW provider %s traits", name)
	}
	return p, nil
}

// ID returns the provider ID.
func (p *Provider) ID() guid.GUID { return p.id }

func (p *Provider) String() string { return fmt.Sprintf("%s (%s)", p.name, p.id) }

// WriteEvent writes a TraceLogging event.
//
// A non-zero Win32 return code is returned as an [*events.ExportError].
func (p *Provider) WriteEvent(desc *tracelogging.EventDescriptor, activityID, relatedID *guid.GUID, meta, data []byte) error {
	dds := [...]eventDataDescriptor{
		newEventDataDescriptor(eventDataDescriptorTypeProviderMetadata, p.traits),
		newEventDataDescriptor(eventDataDescriptorTypeEventMetadata, meta),
		newEventDataDescriptor(eventDataDescriptorTypeUserData, data),
	}
	n := uint32(len(dds))
	if len(data) == 0 {
		n--
	}

	err := eventWriteTransfer(p.handle, desc, activityID, relatedID, n, &dds[0])
	runtime.KeepAlive(p.traits)
	runtime.KeepAlive(meta)
	runtime.KeepAlive(data)
	return exportError(err)
}

// Close unregisters the provider. Subsequent writes fail.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		p.enableState.update(controlCodeDisable, 0, 0, 0)
		if err := eventUnregister(p.handle); err != nil {
			p.closeErr = errors.Wrapf(err, "unregister ETW provider %s", p)
		}
		providers.remove(p.key)
	})
	return p.closeErr
}

func exportError(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return events.NewExportError(errno)
	}
	return err
}

//
// enable callback
//

// providerMap hands out callback context keys for registered providers, since Go
// pointers cannot be passed to and stored by ETW.
type providerMap struct {
	mu   sync.Mutex
	next uintptr
	m    map[uintptr]*Provider
}

var providers = providerMap{m: make(map[uintptr]*Provider)}

func (pm *providerMap) add(p *Provider) uintptr {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.next++
	pm.m[pm.next] = p
	return pm.next
}

func (pm *providerMap) remove(key uintptr) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.m, key)
}

func (pm *providerMap) get(key uintptr) *Provider {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.m[key]
}

var (
	callbackOnce sync.Once
	callback     uintptr
)

// callbackAddr returns the single enable callback shared by all providers.
// The number of callbacks a process can create is limited.
func callbackAddr() uintptr {
	callbackOnce.Do(func() {
		callback = windows.NewCallback(providerCallbackAdapter)
	})
	return callback
}

func providerCallback(code uint32, level uint8, any, all uint64, key uintptr) {
	if p := providers.get(key); p != nil {
		p.enableState.update(code, level, any, all)
	}
}
