package parser

import (
	"fmt"
	"testing"

	"github.com/wippyai/mci-runtime/cmdtable"
	"github.com/wippyai/mci-runtime/errors"
	"github.com/wippyai/mci-runtime/memory"
	"github.com/wippyai/mci-runtime/mmsys"
	"github.com/wippyai/mci-runtime/transcoder"
)

func command(t *testing.T, deviceType, verb string) *cmdtable.Command {
	t.Helper()
	tbl, err := cmdtable.NewStore(nil).Get(deviceType)
	if err != nil {
		t.Fatalf("Get(%s): %v", deviceType, err)
	}
	cmd, ok := tbl.FindVerb(verb)
	if !ok {
		t.Fatalf("%s has no verb %q", deviceType, verb)
	}
	return cmd
}

func TestNextToken(t *testing.T) {
	tests := []struct {
		in   string
		tok  string
		rest string
		kind errors.Kind
	}{
		{in: "snd from 1", tok: "snd", rest: "from 1"},
		{in: "   snd", tok: "snd"},
		{in: `"my device" from 1`, tok: "my device", rest: "from 1"},
		{in: `"my device"`, tok: "my device"},
		{in: `""`, tok: ""},
		{in: `"my device"x`, kind: errors.KindExtraCharacters},
		{in: `"my device`, kind: errors.KindNoClosingQuote},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tok, rest, err := nextToken(tt.in, nil)
			if tt.kind != "" {
				if errors.KindOf(err) != tt.kind {
					t.Fatalf("err = %v, want %s", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tok != tt.tok || rest != tt.rest {
				t.Errorf("got (%q, %q), want (%q, %q)", tok, rest, tt.tok, tt.rest)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"0", 0, true},
		{"1500", 1500, true},
		{"-1", 0xFFFFFFFF, true},
		{"0x1F", 0x1F, true},
		{"0XFFFFFFFF", 0xFFFFFFFF, true},
		{"4294967295", 0xFFFFFFFF, true},
		{"4294967296", 0, false},
		{"0x", 0, false},
		{"12ab", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseInt(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseInt(%q) = %#x, %v", tt.in, got, ok)
			}
		})
	}
}

func TestParseOptions(t *testing.T) {
	type slot struct {
		index int
		value uint32
	}
	tests := []struct {
		name   string
		device string
		verb   string
		args   string
		flags  uint32
		slots  []slot
	}{
		{name: "no args", device: cmdtable.CoreType, verb: "stop"},
		{
			name: "integers", device: cmdtable.CoreType, verb: "play", args: "from 10 to 2000 notify",
			flags: mmsys.FlagFrom | mmsys.FlagTo | mmsys.FlagNotify,
			slots: []slot{{1, 10}, {2, 2000}},
		},
		{
			name: "keywords ignore case", device: cmdtable.CoreType, verb: "play", args: "FROM 0x10 To -1",
			flags: mmsys.FlagFrom | mmsys.FlagTo,
			slots: []slot{{1, 16}, {2, 0xFFFFFFFF}},
		},
		{
			name: "status item", device: cmdtable.CoreType, verb: "status", args: "position",
			flags: mmsys.StatusItem,
			slots: []slot{{2, mmsys.StatusPosition}},
		},
		{
			name: "status item and track", device: cmdtable.CoreType, verb: "status", args: "track 3 position",
			flags: mmsys.StatusItem | mmsys.FlagTrack,
			slots: []slot{{2, mmsys.StatusPosition}, {3, 3}},
		},
		{
			name: "multiword keyword", device: cmdtable.CoreType, verb: "status", args: "number of tracks",
			flags: mmsys.StatusItem,
			slots: []slot{{2, mmsys.StatusNumberOfTracks}},
		},
		{
			name: "named constant", device: cmdtable.CoreType, verb: "set", args: "time format bytes",
			flags: mmsys.SetTimeFormat,
			slots: []slot{{1, mmsys.FormatBytes}},
		},
		{
			name: "longest constant listed first", device: cmdtable.CoreType, verb: "set", args: "time format smpte 30 drop",
			flags: mmsys.SetTimeFormat,
			slots: []slot{{1, mmsys.FormatSMPTE30Drop}},
		},
		{
			name: "literal constant value", device: cmdtable.CoreType, verb: "set", args: "time format 5",
			flags: mmsys.SetTimeFormat,
			slots: []slot{{1, 5}},
		},
		{
			name: "group name alone", device: cmdtable.CoreType, verb: "set", args: "time format",
			flags: mmsys.SetTimeFormat,
		},
		{
			name: "second group", device: cmdtable.CoreType, verb: "set", args: "audio right off",
			flags: mmsys.SetAudio | mmsys.SetOff,
			slots: []slot{{2, mmsys.SetAudioRight}},
		},
		{
			name: "rect", device: "digitalvideo", verb: "put", args: "at -10 0 320 240 destination",
			flags: mmsys.DgvRect | mmsys.DgvDestination,
			slots: []slot{{1, 0xFFFFFFF6}, {2, 0}, {3, 320}, {4, 240}},
		},
		{
			name: "device extension", device: "waveaudio", verb: "set", args: "bitspersample 16 channels 2",
			flags: mmsys.WaveSetBitsPerSample | mmsys.WaveSetChannels,
			slots: []slot{{10, 16}, {6, 2}},
		},
		{
			name: "sequencer extension", device: "sequencer", verb: "set", args: "tempo 120 port 2",
			flags: mmsys.SeqSetTempo | mmsys.SeqSetPort,
			slots: []slot{{3, 120}, {4, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := memory.NewArena(0)
			allocs := transcoder.NewAllocationList()
			defer allocs.FreeAndRelease(as)

			opts, err := ParseOptions(command(t, tt.device, tt.verb), tt.args, as, allocs)
			if err != nil {
				t.Fatalf("ParseOptions: %v", err)
			}
			if opts.Flags != tt.flags {
				t.Errorf("flags = %#x, want %#x", opts.Flags, tt.flags)
			}
			for _, s := range tt.slots {
				if opts.Data[s.index] != s.value {
					t.Errorf("slot %d = %#x, want %#x", s.index, opts.Data[s.index], s.value)
				}
			}
		})
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		device string
		verb   string
		args   string
		kind   errors.Kind
	}{
		{"unknown keyword", cmdtable.CoreType, "play", "fast", errors.KindUnrecognizedCommand},
		{"keyword needs a space", cmdtable.CoreType, "play", "fromage 1", errors.KindUnrecognizedCommand},
		{"bad integer", cmdtable.CoreType, "play", "from soon", errors.KindBadInteger},
		{"missing integer", cmdtable.CoreType, "play", "from", errors.KindBadInteger},
		{"short rect", "digitalvideo", "put", "at 1 2 3", errors.KindBadInteger},
		{"extra characters", cmdtable.CoreType, "save", `"take one"x`, errors.KindExtraCharacters},
		{"no closing quote", cmdtable.CoreType, "save", `"take one`, errors.KindNoClosingQuote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := memory.NewArena(0)
			allocs := transcoder.NewAllocationList()
			defer allocs.FreeAndRelease(as)

			_, err := ParseOptions(command(t, tt.device, tt.verb), tt.args, as, allocs)
			if errors.KindOf(err) != tt.kind {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestParseOptions_Strings(t *testing.T) {
	as := memory.NewArena(0)
	allocs := transcoder.NewAllocationList()

	tests := []struct {
		verb string
		args string
		slot int
		want string
	}{
		{"save", `"c:\my sounds\take1.wav"`, 1, `c:\my sounds\take1.wav`},
		{"load", "take2.wav", 1, "take2.wav"},
	}
	for _, tt := range tests {
		opts, err := ParseOptions(command(t, cmdtable.CoreType, tt.verb), tt.args, as, allocs)
		if err != nil {
			t.Fatalf("%s: %v", tt.verb, err)
		}
		got, err := memory.ReadCString(as, opts.Data[tt.slot])
		if err != nil || got != tt.want {
			t.Errorf("%s string = %q, %v; want %q", tt.verb, got, err, tt.want)
		}
	}

	window := command(t, "digitalvideo", "window")
	opts, err := ParseOptions(window, `handle 0x1234 text "Now Playing"`, as, allocs)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Data[1] != 0x1234 {
		t.Errorf("handle slot = %#x", opts.Data[1])
	}
	if got, _ := memory.ReadCString(as, opts.Data[3]); got != "Now Playing" {
		t.Errorf("text slot = %q", got)
	}

	if allocs.Count() != 3 {
		t.Errorf("recorded %d strings, want 3", allocs.Count())
	}
	allocs.FreeAndRelease(as)
	if as.Live() != 0 {
		t.Errorf("live blocks after free: %d", as.Live())
	}
}

func TestParseOptions_SlotOverflow(t *testing.T) {
	b := cmdtable.NewBuilder()
	c := b.Command("fill", mmsys.MsgPlay, cmdtable.ReturnNone)
	for i := 0; i < SlotCount; i++ {
		c.Integer(fmt.Sprintf("k%d", i), 1<<i)
	}
	c.End()
	tbl, err := cmdtable.Decode("test", b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := tbl.FindVerb("fill")

	as := memory.NewArena(0)
	allocs := transcoder.NewAllocationList()
	defer allocs.FreeAndRelease(as)

	opts, err := ParseOptions(cmd, "k14 7", as, allocs)
	if err != nil {
		t.Fatalf("last fitting slot: %v", err)
	}
	if opts.Data[15] != 7 {
		t.Errorf("slot 15 = %d", opts.Data[15])
	}

	for _, args := range []string{"k15 7", "nothing"} {
		if _, err := ParseOptions(cmd, args, as, allocs); errors.KindOf(err) != errors.KindParserInternal {
			t.Errorf("ParseOptions(%q) = %v, want parser internal", args, err)
		}
	}
}
