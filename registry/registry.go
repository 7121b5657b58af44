package registry

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/resource"
)

// Config configures a Registry.
type Config struct {
	Loader driver.Loader
	// Floor is the lowest device id handed out. Zero means mmsys.FirstDeviceID.
	Floor mmsys.DeviceID
	// ArenaLimit caps the legacy address space given to legacy drivers that
	// do not bring their own. Zero means memory.DefaultLimit.
	ArenaLimit uint32
}

// OpenRequest names the session to open.
type OpenRequest struct {
	DeviceType string
	Alias      string
	Element    string
	Flags      uint32
}

// NotifyFunc delivers the close notification to a session's driver before
// the session is torn down.
type NotifyFunc func(ctx context.Context, s *Session) error

// Registry owns every open session. Structural changes happen under one
// mutex; driver calls never do.
type Registry struct {
	loader   driver.Loader
	sessions *resource.Arena[*Session]
	byID     map[mmsys.DeviceID]resource.Handle
	reserved map[mmsys.DeviceID]string
	mu       sync.Mutex
	floor    mmsys.DeviceID
	limit    uint32
	closed   bool
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	floor := cfg.Floor
	if floor == 0 {
		floor = mmsys.FirstDeviceID
	}
	return &Registry{
		loader:   cfg.Loader,
		sessions: resource.NewArena[*Session](),
		byID:     make(map[mmsys.DeviceID]resource.Handle),
		reserved: make(map[mmsys.DeviceID]string),
		floor:    floor,
		limit:    cfg.ArenaLimit,
	}
}

// Subscribe registers an observer for session created and dropped events.
func (r *Registry) Subscribe(o resource.Observer) {
	r.sessions.Subscribe(o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o resource.Observer) {
	r.sessions.Unsubscribe(o)
}

// Open reserves the lowest free device id, loads the driver outside the lock
// and publishes the session. Any failure releases everything acquired so far.
func (r *Registry) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	deviceType := strings.ToLower(req.DeviceType)
	if deviceType == "" {
		return nil, errors.New(errors.PhaseRegistry, errors.KindDeviceNotInstalled).
			Detail("no device type given").
			Build()
	}
	if r.loader == nil {
		return nil, errors.DeviceNotInstalled(deviceType)
	}

	id, err := r.reserve(req.Alias)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         id,
		DeviceType: deviceType,
		Alias:      req.Alias,
		Element:    req.Element,
		OpenFlags:  req.Flags,
	}

	d, err := r.loader.Load(ctx, driver.OpenParams{
		DeviceType: deviceType,
		Alias:      req.Alias,
		Element:    req.Element,
		DeviceID:   id,
		Flags:      req.Flags,
	})
	if err != nil {
		r.release(id)
		return nil, err
	}
	s.Driver = d
	s.Convention = d.Convention()

	if err := r.attach(s); err != nil {
		r.discard(ctx, s)
		r.release(id)
		return nil, err
	}

	r.mu.Lock()
	delete(r.reserved, id)
	if r.closed {
		r.mu.Unlock()
		r.discard(ctx, s)
		return nil, r.closedError()
	}
	h, err := r.sessions.Insert(s)
	if err != nil {
		r.mu.Unlock()
		r.discard(ctx, s)
		return nil, r.closedError()
	}
	s.handle = h
	r.byID[id] = h
	r.mu.Unlock()

	Logger().Debug("session opened",
		zap.Uint32("device", uint32(id)),
		zap.String("type", deviceType),
		zap.String("alias", req.Alias),
		zap.String("element", req.Element),
		zap.Stringer("convention", s.Convention))
	return s, nil
}

// attach loads the driver's own command table and legacy address space.
func (r *Registry) attach(s *Session) error {
	if tp, ok := s.Driver.(driver.TableProvider); ok {
		if data := tp.CommandTable(); data != nil {
			t, err := cmdtable.Custom(s.DeviceType, data)
			if err != nil {
				return err
			}
			s.Table = t
		}
	}
	if s.Convention == driver.Legacy {
		if ap, ok := s.Driver.(driver.AddressSpaceProvider); ok && ap.AddressSpace() != nil {
			s.Legacy = ap.AddressSpace()
		} else {
			s.Legacy = memory.NewArena(r.limit)
		}
	}
	return nil
}

// reserve claims the lowest free id and checks alias uniqueness.
func (r *Registry) reserve(alias string) (mmsys.DeviceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, r.closedError()
	}
	if alias != "" {
		for _, a := range r.reserved {
			if strings.EqualFold(a, alias) {
				return 0, duplicateAlias(alias)
			}
		}
		for _, h := range r.byID {
			if s, ok := r.sessions.Get(h); ok && strings.EqualFold(s.Alias, alias) {
				return 0, duplicateAlias(alias)
			}
		}
	}

	for id := r.floor; id != mmsys.AllDevices; id++ {
		if _, used := r.byID[id]; used {
			continue
		}
		if _, held := r.reserved[id]; held {
			continue
		}
		r.reserved[id] = alias
		return id, nil
	}
	return 0, errors.New(errors.PhaseRegistry, errors.KindOutOfMemory).
		Detail("device ids exhausted").
		Build()
}

func (r *Registry) release(id mmsys.DeviceID) {
	r.mu.Lock()
	delete(r.reserved, id)
	r.mu.Unlock()
}

// discard closes a driver whose session never became visible.
func (r *Registry) discard(ctx context.Context, s *Session) {
	if err := s.Driver.Close(ctx); err != nil {
		Logger().Warn("driver close failed during open unwind",
			zap.Uint32("device", uint32(s.ID)),
			zap.String("type", s.DeviceType),
			zap.Error(err))
	}
}

// Unwind removes a session that was published but whose open handshake
// failed. No close notification is sent.
func (r *Registry) Unwind(ctx context.Context, id mmsys.DeviceID) error {
	s, ok := r.take(id)
	if !ok {
		return errors.InvalidDeviceID(errors.PhaseRegistry, id)
	}
	Logger().Debug("session unwound", zap.Uint32("device", uint32(id)))
	return s.Driver.Close(ctx)
}

// take removes a session from the lookup structures.
func (r *Registry) take(id mmsys.DeviceID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	return r.sessions.Remove(h)
}

// Close closes one session. The notification runs first; the session is
// then removed and its driver closed regardless of the notification's
// outcome, which is returned. Closing an id that is not open is
// InvalidDeviceID. mmsys.AllDevices closes every session and folds the
// notification warning of CloseAll into the error.
func (r *Registry) Close(ctx context.Context, id mmsys.DeviceID, notify NotifyFunc) error {
	if id == mmsys.AllDevices {
		warning, err := r.CloseAll(ctx, notify)
		return multierr.Append(warning, err)
	}

	s, err := r.FindByID(id)
	if err != nil {
		return err
	}

	var notifyErr error
	if notify != nil {
		notifyErr = notify(ctx, s)
	}

	if _, ok := r.take(id); !ok {
		// Lost a race with another close of the same id.
		return errors.InvalidDeviceID(errors.PhaseRegistry, id)
	}

	closeErr := s.Driver.Close(ctx)
	if closeErr != nil {
		Logger().Warn("driver close failed",
			zap.Uint32("device", uint32(id)),
			zap.String("type", s.DeviceType),
			zap.Error(closeErr))
	}
	Logger().Debug("session closed",
		zap.Uint32("device", uint32(id)),
		zap.String("type", s.DeviceType))

	return multierr.Append(notifyErr, closeErr)
}

// CloseAll closes every session independently. The first notification
// failure is returned as warning and driver close errors are aggregated in
// err; neither stops the remaining sessions from closing.
func (r *Registry) CloseAll(ctx context.Context, notify NotifyFunc) (warning, err error) {
	for _, id := range r.ids() {
		s, ferr := r.FindByID(id)
		if ferr != nil {
			// Closed concurrently; nothing left to do for it.
			continue
		}
		if notify != nil {
			if nerr := notify(ctx, s); nerr != nil {
				Logger().Warn("close notification failed",
					zap.Uint32("device", uint32(id)),
					zap.Error(nerr))
				if warning == nil {
					warning = nerr
				}
			}
		}
		if _, ok := r.take(id); !ok {
			continue
		}
		if cerr := s.Driver.Close(ctx); cerr != nil {
			Logger().Warn("driver close failed",
				zap.Uint32("device", uint32(id)),
				zap.Error(cerr))
			err = multierr.Append(err, cerr)
		}
		Logger().Debug("session closed",
			zap.Uint32("device", uint32(id)),
			zap.String("type", s.DeviceType))
	}
	return warning, err
}

// Shutdown closes every session without notifications and rejects further
// opens. It is safe to call more than once.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	_, err := r.CloseAll(ctx, nil)
	return multierr.Append(err, r.sessions.Close())
}

// FindByID returns the open session with the given id.
func (r *Registry) FindByID(id mmsys.DeviceID) (*Session, error) {
	r.mu.Lock()
	h, ok := r.byID[id]
	r.mu.Unlock()
	if ok {
		if s, ok := r.sessions.Get(h); ok {
			return s, nil
		}
	}
	return nil, errors.InvalidDeviceID(errors.PhaseRegistry, id)
}

// FindByName resolves a device name case-insensitively, checking every
// session's element name, then device type, then alias. A decimal name
// that matches nothing is tried as a device id.
func (r *Registry) FindByName(name string) (*Session, error) {
	sessions := r.Sessions()
	for _, match := range []func(*Session) string{
		func(s *Session) string { return s.Element },
		func(s *Session) string { return s.DeviceType },
		func(s *Session) string { return s.Alias },
	} {
		for _, s := range sessions {
			if v := match(s); v != "" && strings.EqualFold(v, name) {
				return s, nil
			}
		}
	}
	if n, err := strconv.ParseUint(name, 10, 32); err == nil && n != 0 {
		return r.FindByID(mmsys.DeviceID(n))
	}
	return nil, errors.InvalidDeviceID(errors.PhaseRegistry, name)
}

// Resolve maps a device name to an id. The literal "all", in any case,
// resolves to mmsys.AllDevices.
func (r *Registry) Resolve(name string) (mmsys.DeviceID, error) {
	if strings.EqualFold(name, "all") {
		return mmsys.AllDevices, nil
	}
	s, err := r.FindByName(name)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

// Sessions returns a snapshot of the open sessions ordered by device id.
func (r *Registry) Sessions() []*Session {
	var out []*Session
	r.sessions.Each(func(_ resource.Handle, s *Session) bool {
		out = append(out, s)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}

func (r *Registry) ids() []mmsys.DeviceID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mmsys.DeviceID, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) closedError() error {
	return errors.New(errors.PhaseRegistry, errors.KindInternal).
		Detail("registry is shut down").
		Build()
}

func duplicateAlias(alias string) error {
	return errors.New(errors.PhaseRegistry, errors.KindDuplicateAlias).
		Value(alias).
		Detail("alias %q is already in use", alias).
		Build()
}
