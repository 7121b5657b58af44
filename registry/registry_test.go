package registry

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	mciruntime "github.com/wippyai/mci-runtime"
	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/driver"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/resource"
)

type fakeDriver struct {
	driver.Funcs
	table    []byte
	mem      mciruntime.AddressSpace
	closeErr error
	closed   int
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.closed++
	return d.closeErr
}

func (d *fakeDriver) CommandTable() []byte { return d.table }

func (d *fakeDriver) AddressSpace() mciruntime.AddressSpace { return d.mem }

type fakeLoader struct {
	mu      sync.Mutex
	drivers []*fakeDriver
	make    func(p driver.OpenParams) (*fakeDriver, error)
}

func (l *fakeLoader) Load(ctx context.Context, p driver.OpenParams) (driver.Driver, error) {
	var (
		d   *fakeDriver
		err error
	)
	if l.make != nil {
		d, err = l.make(p)
	} else {
		d = &fakeDriver{}
	}
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.drivers = append(l.drivers, d)
	l.mu.Unlock()
	return d, nil
}

func newRegistry(l *fakeLoader) *Registry {
	return New(Config{Loader: l})
}

func TestRegistry_OpenAssignsDistinctIDs(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()

	a, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("identical opens share id %d", a.ID)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRegistry_ReusesLowestFreeID(t *testing.T) {
	r := New(Config{Loader: &fakeLoader{}, Floor: 10})
	ctx := context.Background()

	var ids []mmsys.DeviceID
	for i := 0; i < 3; i++ {
		s, err := r.Open(ctx, OpenRequest{DeviceType: "sequencer"})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		ids = append(ids, s.ID)
	}
	if ids[0] != 10 {
		t.Fatalf("first id = %d, want floor 10", ids[0])
	}
	if err := r.Close(ctx, ids[1], nil); err != nil {
		t.Fatalf("Close: %v", err)
	}
	s, err := r.Open(ctx, OpenRequest{DeviceType: "sequencer"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.ID != ids[1] {
		t.Errorf("reopened id = %d, want %d", s.ID, ids[1])
	}
}

func TestRegistry_DoubleClose(t *testing.T) {
	l := &fakeLoader{}
	r := newRegistry(l)
	ctx := context.Background()

	s, err := r.Open(ctx, OpenRequest{DeviceType: "cdaudio"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	notified := 0
	notify := func(ctx context.Context, s *Session) error {
		notified++
		return nil
	}
	if err := r.Close(ctx, s.ID, notify); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err = r.Close(ctx, s.ID, notify)
	if errors.KindOf(err) != errors.KindInvalidDeviceID {
		t.Fatalf("second Close = %v, want invalid device id", err)
	}
	if notified != 1 {
		t.Errorf("notified %d times", notified)
	}
	if l.drivers[0].closed != 1 {
		t.Errorf("driver closed %d times", l.drivers[0].closed)
	}
}

func TestRegistry_CloseReportsNotifyAndDriverErrors(t *testing.T) {
	closeErr := stderrors.New("device busy")
	l := &fakeLoader{make: func(p driver.OpenParams) (*fakeDriver, error) {
		return &fakeDriver{closeErr: closeErr}, nil
	}}
	r := newRegistry(l)
	ctx := context.Background()

	s, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	notifyErr := errors.Driver(errors.CodeCustomDriverBase + 3)
	err = r.Close(ctx, s.ID, func(ctx context.Context, s *Session) error { return notifyErr })
	if !stderrors.Is(err, closeErr) {
		t.Errorf("Close error %v does not carry driver close error", err)
	}
	if errors.CodeOf(err) != errors.CodeCustomDriverBase+3 {
		t.Errorf("CodeOf = %d, want notification status", errors.CodeOf(err))
	}
	if _, err := r.FindByID(s.ID); err == nil {
		t.Error("session still open after failing close")
	}
}

func TestRegistry_OpenUnwind(t *testing.T) {
	loadErr := errors.DeviceNotInstalled("vcr")

	tests := []struct {
		name string
		make func(p driver.OpenParams) (*fakeDriver, error)
		want errors.Kind
	}{
		{
			name: "load failure",
			make: func(p driver.OpenParams) (*fakeDriver, error) { return nil, loadErr },
			want: errors.KindDeviceNotInstalled,
		},
		{
			name: "bad driver table",
			make: func(p driver.OpenParams) (*fakeDriver, error) {
				return &fakeDriver{table: []byte{'x'}}, nil
			},
			want: errors.KindInvalidCommandTable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLoader{make: tt.make}
			r := newRegistry(l)
			ctx := context.Background()

			_, err := r.Open(ctx, OpenRequest{DeviceType: "vcr", Alias: "deck"})
			if errors.KindOf(err) != tt.want {
				t.Fatalf("Open = %v, want %s", err, tt.want)
			}
			if r.Len() != 0 {
				t.Errorf("Len() = %d after failed open", r.Len())
			}
			for _, d := range l.drivers {
				if d.closed != 1 {
					t.Errorf("loaded driver closed %d times", d.closed)
				}
			}

			// The id and alias must be free again.
			l.make = nil
			s, err := r.Open(ctx, OpenRequest{DeviceType: "vcr", Alias: "deck"})
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if s.ID != 1 {
				t.Errorf("reopen id = %d, want 1", s.ID)
			}
		})
	}
}

func TestRegistry_DuplicateAlias(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()

	if _, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio", Alias: "Snd"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err := r.Open(ctx, OpenRequest{DeviceType: "sequencer", Alias: "snd"})
	if errors.KindOf(err) != errors.KindDuplicateAlias {
		t.Fatalf("Open = %v, want duplicate alias", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRegistry_FindByName(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()

	wave, _ := r.Open(ctx, OpenRequest{DeviceType: "waveaudio", Element: "c:\\ding.wav"})
	cd, _ := r.Open(ctx, OpenRequest{DeviceType: "cdaudio", Alias: "disc"})

	tests := []struct {
		name string
		want *Session
	}{
		{"C:\\DING.WAV", wave},
		{"waveaudio", wave},
		{"CDAudio", cd},
		{"disc", cd},
		{"2", cd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := r.FindByName(tt.name)
			if err != nil {
				t.Fatalf("FindByName: %v", err)
			}
			if s != tt.want {
				t.Errorf("FindByName(%q) = %d, want %d", tt.name, s.ID, tt.want.ID)
			}
		})
	}

	if _, err := r.FindByName("nosuch"); errors.KindOf(err) != errors.KindInvalidDeviceID {
		t.Errorf("unknown name = %v", err)
	}
	id, err := r.Resolve("ALL")
	if err != nil || id != mmsys.AllDevices {
		t.Errorf("Resolve(ALL) = %d, %v", id, err)
	}
}

func TestRegistry_ElementBeatsAlias(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()

	aliased, _ := r.Open(ctx, OpenRequest{DeviceType: "waveaudio", Alias: "track"})
	element, _ := r.Open(ctx, OpenRequest{DeviceType: "cdaudio", Element: "track"})

	s, err := r.FindByName("track")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if s != element {
		t.Errorf("got session %d, want element match %d (not alias %d)", s.ID, element.ID, aliased.ID)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	l := &fakeLoader{}
	r := newRegistry(l)
	ctx := context.Background()
	for _, typ := range []string{"waveaudio", "sequencer", "cdaudio"} {
		if _, err := r.Open(ctx, OpenRequest{DeviceType: typ}); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}

	warn := errors.Driver(errors.CodeCustomDriverBase + 1)
	var order []mmsys.DeviceID
	warning, err := r.CloseAll(ctx, func(ctx context.Context, s *Session) error {
		order = append(order, s.ID)
		if s.ID == 2 {
			return warn
		}
		return nil
	})
	if err != nil {
		t.Errorf("CloseAll error = %v", err)
	}
	if !stderrors.Is(warning, warn) {
		t.Errorf("CloseAll warning = %v, want the notification failure", warning)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after close all", r.Len())
	}
	if len(order) != 3 || order[0] != 1 || order[2] != 3 {
		t.Errorf("close order = %v", order)
	}
	for _, d := range l.drivers {
		if d.closed != 1 {
			t.Errorf("driver closed %d times", d.closed)
		}
	}
	if logs.FilterMessage("close notification failed").Len() != 1 {
		t.Errorf("expected one notification warning, got %v", logs.All())
	}
}

func TestRegistry_CloseAllSeparatesDriverErrors(t *testing.T) {
	closeErr := stderrors.New("device busy")
	l := &fakeLoader{make: func(p driver.OpenParams) (*fakeDriver, error) {
		if p.DeviceType == "cdaudio" {
			return &fakeDriver{closeErr: closeErr}, nil
		}
		return &fakeDriver{}, nil
	}}
	r := newRegistry(l)
	ctx := context.Background()
	for _, typ := range []string{"waveaudio", "cdaudio"} {
		if _, err := r.Open(ctx, OpenRequest{DeviceType: typ}); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}

	warn := errors.Driver(errors.CodeCustomDriverBase + 2)
	warning, err := r.CloseAll(ctx, func(ctx context.Context, s *Session) error {
		if s.ID == 1 {
			return warn
		}
		return nil
	})
	if !stderrors.Is(warning, warn) || stderrors.Is(warning, closeErr) {
		t.Errorf("warning = %v", warning)
	}
	if !stderrors.Is(err, closeErr) || stderrors.Is(err, warn) {
		t.Errorf("err = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after close all", r.Len())
	}
}

func TestRegistry_CloseAllThroughClose(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()
	if _, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	warn := errors.Driver(errors.CodeCustomDriverBase + 4)
	err := r.Close(ctx, mmsys.AllDevices, func(ctx context.Context, s *Session) error { return warn })
	if !stderrors.Is(err, warn) {
		t.Errorf("Close(all) = %v, want the notification warning", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRegistry_Attach(t *testing.T) {
	table := cmdtable.NewBuilder()
	table.Command("eject", mmsys.MsgSpin, cmdtable.ReturnNone).Notify().End()
	owned := memory.NewArena(0)

	tests := []struct {
		name      string
		drv       *fakeDriver
		wantTable bool
		wantOwned bool
	}{
		{"flat default", &fakeDriver{}, false, false},
		{"flat with table", &fakeDriver{table: table.Bytes()}, true, false},
		{"legacy arena", &fakeDriver{Funcs: driver.Funcs{Conv: driver.Legacy}}, false, false},
		{"legacy owned", &fakeDriver{Funcs: driver.Funcs{Conv: driver.Legacy}, mem: owned}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := tt.drv
			r := newRegistry(&fakeLoader{make: func(p driver.OpenParams) (*fakeDriver, error) { return drv, nil }})
			s, err := r.Open(context.Background(), OpenRequest{DeviceType: "vcr"})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if (s.Table != nil) != tt.wantTable {
				t.Errorf("Table = %v", s.Table)
			}
			if tt.wantTable {
				if _, ok := s.Table.FindVerb("eject"); !ok {
					t.Error("driver verb missing")
				}
			}
			switch {
			case s.Convention == driver.Flat && s.Legacy != nil:
				t.Error("flat session got a legacy address space")
			case s.Convention == driver.Legacy && s.Legacy == nil:
				t.Error("legacy session has no address space")
			case tt.wantOwned && s.Legacy != mciruntime.AddressSpace(owned):
				t.Error("driver's own address space not used")
			}
		})
	}
}

type countingObserver struct {
	mu     sync.Mutex
	events []resource.EventType
}

func (o *countingObserver) OnResourceEvent(e resource.Event) {
	o.mu.Lock()
	o.events = append(o.events, e.Type)
	o.mu.Unlock()
}

func TestRegistry_ShutdownRejectsOpen(t *testing.T) {
	obs := &countingObserver{}
	r := newRegistry(&fakeLoader{})
	r.Subscribe(obs)
	ctx := context.Background()

	if _, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"}); err == nil {
		t.Fatal("Open after Shutdown succeeded")
	}
	if len(obs.events) != 2 || obs.events[0] != resource.EventCreated || obs.events[1] != resource.EventDropped {
		t.Errorf("events = %v", obs.events)
	}
}

func TestRegistry_ConcurrentOpenClose(t *testing.T) {
	r := newRegistry(&fakeLoader{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s, err := r.Open(ctx, OpenRequest{DeviceType: "waveaudio"})
				if err != nil {
					t.Errorf("Open: %v", err)
					return
				}
				if err := r.Close(ctx, s.ID, nil); err != nil {
					t.Errorf("Close: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Errorf("Len() = %d", r.Len())
	}
}
