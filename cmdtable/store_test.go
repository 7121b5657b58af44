package cmdtable

import (
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/atomic"

	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
)

func TestStore_CachesTables(t *testing.T) {
	var loads atomic.Int32
	src := SourceFunc(func(deviceType string) ([]byte, error) {
		loads.Inc()
		return Builtin().Load(deviceType)
	})
	s := NewStore(src)

	t1, err := s.Get("WaveAudio")
	if err != nil {
		t.Fatal(err)
	}
	t2, err := s.Get("waveaudio")
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Error("Get should return the cached table")
	}
	if loads.Load() != 1 {
		t.Errorf("source loaded %d times, want 1", loads.Load())
	}
	if t1.DeviceType() != "waveaudio" {
		t.Errorf("DeviceType() = %q", t1.DeviceType())
	}
}

func TestStore_ConcurrentFirstAccess(t *testing.T) {
	var loads atomic.Int32
	src := SourceFunc(func(deviceType string) ([]byte, error) {
		loads.Inc()
		return Builtin().Load(deviceType)
	})
	s := NewStore(src)

	var wg sync.WaitGroup
	results := make([]*Table, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := s.Core()
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = tbl
		}(i)
	}
	wg.Wait()

	for i, tbl := range results {
		if tbl != results[0] {
			t.Errorf("goroutine %d saw a different table", i)
		}
	}
	if loads.Load() != 1 {
		t.Errorf("source loaded %d times, want 1", loads.Load())
	}
}

func TestStore_FailedLoadNotCached(t *testing.T) {
	fail := true
	src := SourceFunc(func(deviceType string) ([]byte, error) {
		if fail {
			return nil, stderrors.New("resource busy")
		}
		return Builtin().Load(CoreType)
	})
	s := NewStore(src)

	_, err := s.Get("vcr")
	if !stderrors.Is(err, errors.ErrInvalidCommandTable) {
		t.Fatalf("expected invalid command table, got %v", err)
	}
	fail = false
	if _, err := s.Get("vcr"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestStore_Lookup(t *testing.T) {
	s := NewStore(nil)

	tbl, err := s.Lookup("vcr")
	if err != nil || tbl != nil {
		t.Errorf("Lookup(vcr) = %v, %v; want nil, nil", tbl, err)
	}
	tbl, err = s.Lookup("cdaudio")
	if err != nil || tbl == nil {
		t.Errorf("Lookup(cdaudio) = %v, %v", tbl, err)
	}

	bad := NewStore(MapSource(map[string][]byte{"broken": {1, 2, 3}}))
	if _, err := bad.Lookup("broken"); err == nil {
		t.Error("Lookup should surface decode failures")
	}
}

func TestLayered(t *testing.T) {
	override := NewBuilder()
	override.Command("eject", mmsys.MsgSet, ReturnNone).End()
	src := Layered(nil, MapSource(map[string][]byte{"waveaudio": override.Bytes()}), Builtin())

	s := NewStore(src)
	wave, err := s.Get("waveaudio")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := wave.FindVerb("eject"); !ok {
		t.Error("first source should win")
	}
	if _, err := s.Get(CoreType); err != nil {
		t.Errorf("fallback source: %v", err)
	}
	if _, err := src.Load("nothing"); !stderrors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCustom(t *testing.T) {
	b := NewBuilder()
	b.Command("spin", mmsys.MsgSpin, ReturnNone).Flag("up", 0x00010000).End()
	tbl, err := Custom("MyDev", b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if tbl.DeviceType() != "mydev" {
		t.Errorf("DeviceType() = %q", tbl.DeviceType())
	}
	if len(NewStore(nil).Cached()) != 0 {
		t.Error("Custom must not touch any store")
	}
}
