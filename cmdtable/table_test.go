package cmdtable

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/mmsys"
)

func TestDecode_Builtin(t *testing.T) {
	for _, name := range []string{CoreType, "waveaudio", "sequencer", "cdaudio", "digitalvideo"} {
		t.Run(name, func(t *testing.T) {
			data, err := Builtin().Load(name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tbl, err := Decode(name, data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(tbl.Commands()) == 0 {
				t.Error("table has no commands")
			}
			if tbl.Size() != len(data) {
				t.Errorf("Size() = %d, want %d", tbl.Size(), len(data))
			}
		})
	}
}

func TestFindVerb_OnlyCommandHeads(t *testing.T) {
	data, _ := Builtin().Load(CoreType)
	tbl, err := Decode(CoreType, data)
	if err != nil {
		t.Fatal(err)
	}

	heads := make(map[string]bool)
	for _, e := range tbl.Entries() {
		if e.Kind == KindCommandHead {
			heads[e.Name] = true
		}
	}
	for _, e := range tbl.Entries() {
		if e.Name == "" {
			continue
		}
		_, found := tbl.FindVerb(e.Name)
		if found != heads[e.Name] {
			t.Errorf("FindVerb(%q) = %v, entry kind %s", e.Name, found, e.Kind)
		}
	}

	for _, kw := range []string{"notify", "position", "time format", "from", "type"} {
		if _, ok := tbl.FindVerb(kw); ok {
			t.Errorf("FindVerb(%q) matched an argument keyword", kw)
		}
	}
}

func TestFindVerb_CaseSensitive(t *testing.T) {
	data, _ := Builtin().Load(CoreType)
	tbl, _ := Decode(CoreType, data)

	if c, ok := tbl.FindVerb("play"); !ok || c.Message != mmsys.MsgPlay {
		t.Fatalf("FindVerb(play) = %v, %v", c, ok)
	}
	if _, ok := tbl.FindVerb("PLAY"); ok {
		t.Error("verb lookup must be case-sensitive")
	}
	var nilTable *Table
	if _, ok := nilTable.FindVerb("play"); ok {
		t.Error("nil table must not match")
	}
}

func TestDecode_ReturnTypes(t *testing.T) {
	data, _ := Builtin().Load(CoreType)
	tbl, _ := Decode(CoreType, data)

	tests := []struct {
		verb string
		ret  ReturnType
		slot int
	}{
		{"play", ReturnNone, 1},
		{"status", ReturnInteger, 2},
		{"info", ReturnString, 3},
		{"open", ReturnInteger, 2},
	}
	for _, tt := range tests {
		t.Run(tt.verb, func(t *testing.T) {
			c, ok := tbl.FindVerb(tt.verb)
			if !ok {
				t.Fatal("verb missing")
			}
			if c.Return != tt.ret {
				t.Errorf("Return = %v, want %v", c.Return, tt.ret)
			}
			if c.Return.FirstSlot() != tt.slot {
				t.Errorf("FirstSlot = %d, want %d", c.Return.FirstSlot(), tt.slot)
			}
		})
	}
	if ReturnRect.FirstSlot() != 5 {
		t.Errorf("rect FirstSlot = %d", ReturnRect.FirstSlot())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{"head without name", func(b *Builder) {
			b.Entry("", uint32(mmsys.MsgPlay), KindCommandHead).Entry("", 0, KindEndCommand)
		}},
		{"head without message", func(b *Builder) {
			b.Entry("play", 0, KindCommandHead).Entry("", 0, KindEndCommand)
		}},
		{"named end command", func(b *Builder) {
			b.Entry("play", uint32(mmsys.MsgPlay), KindCommandHead).Entry("x", 0, KindEndCommand)
		}},
		{"string in group", func(b *Builder) {
			b.Command("set", mmsys.MsgSet, ReturnNone).
				Constant("audio", mmsys.SetAudio).
				String("file", 1).
				EndConstant().
				End()
		}},
		{"nested group", func(b *Builder) {
			b.Command("set", mmsys.MsgSet, ReturnNone).
				Constant("a", 1).
				Constant("b", 2).
				EndConstant().
				EndConstant().
				End()
		}},
		{"end constant without constant", func(b *Builder) {
			b.Command("set", mmsys.MsgSet, ReturnNone).EndConstant().End()
		}},
		{"group open at end", func(b *Builder) {
			b.Command("set", mmsys.MsgSet, ReturnNone).Constant("a", 1).End()
		}},
		{"argument outside command", func(b *Builder) {
			b.Entry("wait", mmsys.FlagWait, KindFlag)
		}},
		{"misplaced return", func(b *Builder) {
			b.Command("play", mmsys.MsgPlay, ReturnNone).
				Flag("wait", mmsys.FlagWait)
			b.Entry("", uint32(ReturnInteger), KindReturn).Entry("", 0, KindEndCommand)
		}},
		{"bad return type", func(b *Builder) {
			b.Entry("play", uint32(mmsys.MsgPlay), KindCommandHead).
				Entry("", 99, KindReturn).
				Entry("", 0, KindEndCommand)
		}},
		{"unknown kind", func(b *Builder) {
			b.Entry("play", uint32(mmsys.MsgPlay), KindCommandHead).Entry("x", 0, Kind(42))
		}},
		{"unterminated command", func(b *Builder) {
			b.Command("play", mmsys.MsgPlay, ReturnNone).Flag("wait", mmsys.FlagWait)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := Decode("test", b.Bytes())
			if errors.KindOf(err) != errors.KindInvalidCommandTable {
				t.Errorf("expected invalid command table, got %v", err)
			}
		})
	}
}

func TestDecode_Truncated(t *testing.T) {
	b := NewBuilder()
	b.Command("play", mmsys.MsgPlay, ReturnNone).End()
	data := b.Bytes()

	for _, cut := range []int{2, 7, 9, len(data) - 1} {
		if _, err := Decode("test", data[:cut]); !stderrors.Is(err, errors.ErrInvalidCommandTable) {
			t.Errorf("cut %d: expected invalid command table, got %v", cut, err)
		}
	}
	if _, err := Decode("test", append(append([]byte{}, data...), 0)); err == nil {
		t.Error("expected error for trailing data")
	}
}

func TestDecode_DuplicateVerbFirstWins(t *testing.T) {
	b := NewBuilder()
	b.Command("play", mmsys.MsgPlay, ReturnNone).End()
	b.Command("play", mmsys.MsgStop, ReturnNone).End()
	tbl, err := Decode("test", b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	c, _ := tbl.FindVerb("play")
	if c.Message != mmsys.MsgPlay {
		t.Errorf("Message = %v, want play", c.Message)
	}
}

func TestEntrySlots(t *testing.T) {
	tests := []struct {
		kind    Kind
		inGroup bool
		want    int
	}{
		{KindFlag, false, 0},
		{KindInteger, false, 1},
		{KindInteger, true, 0},
		{KindString, false, 1},
		{KindRect, false, 4},
		{KindConstant, false, 0},
		{KindEndConstant, true, 1},
	}
	for _, tt := range tests {
		if got := (Entry{Kind: tt.kind}).Slots(tt.inGroup); got != tt.want {
			t.Errorf("%s (group=%v) Slots = %d, want %d", tt.kind, tt.inGroup, got, tt.want)
		}
	}
}
