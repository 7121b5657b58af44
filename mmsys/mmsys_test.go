package mmsys

import "testing"

func TestMessageString(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{MsgOpen, "open"},
		{MsgStatus, "status"},
		{MsgGetDevCaps, "getdevcaps"},
		{Message(0x0900), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.msg.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTag(t *testing.T) {
	r := ReturnResource | ModePlay
	if Tag(r) != ReturnResource {
		t.Errorf("Tag = %#x", Tag(r))
	}
	if StripTag(r) != ModePlay {
		t.Errorf("StripTag = %#x", StripTag(r))
	}
}

func TestReturnTagValues(t *testing.T) {
	tests := []struct {
		name string
		tag  uint32
		want uint32
	}{
		{"resource", ReturnResource, 0x00010000},
		{"colonized3", ReturnColonized3, 0x00020000},
		{"colonized4", ReturnColonized4, 0x00040000},
		{"integer", ReturnInteger, 0x00080000},
		{"resource driver", ReturnResourceDriver, 0x00100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tag != tt.want {
				t.Errorf("tag = %#x, want %#x", tt.tag, tt.want)
			}
		})
	}
}

func TestDeviceTypes(t *testing.T) {
	for id := DevTypeVCR; id <= DevTypeSequencer; id++ {
		name, ok := DeviceTypeName(id)
		if !ok || name == "" {
			t.Fatalf("DeviceTypeName(%d) missing", id)
		}
		back, ok := DeviceTypeID(name)
		if !ok || back != id {
			t.Errorf("DeviceTypeID(%q) = %d, want %d", name, back, id)
		}
	}
	if _, ok := DeviceTypeName(ModeStop); ok {
		t.Error("mode id should not name a device type")
	}
	if id, ok := DeviceTypeID("WaveAudio"); !ok || id != DevTypeWaveformAudio {
		t.Error("DeviceTypeID should ignore case")
	}
}

func TestCoreString(t *testing.T) {
	tests := []struct {
		id   uint32
		want string
	}{
		{ModeStop, "stopped"},
		{True, "true"},
		{FormatStringBase + FormatMSF, "msf"},
		{FormatStringBase + FormatTMSF, "tmsf"},
	}
	for _, tt := range tests {
		got, ok := CoreString(tt.id)
		if !ok || got != tt.want {
			t.Errorf("CoreString(%d) = %q, %v; want %q", tt.id, got, ok, tt.want)
		}
	}
	if _, ok := CoreString(0); ok {
		t.Error("CoreString(0) should miss")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want DeviceKind
	}{
		{"waveaudio", KindWaveAudio},
		{"DigitalVideo", KindDigitalVideo},
		{"overlay", KindOverlay},
		{"animation", KindAnimation},
		{"mystery", KindGeneric},
		{"other", KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.name); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	msgs := Messages()
	if len(msgs) == 0 || msgs[0] != MsgOpenDriver || msgs[len(msgs)-1] != MsgDelete {
		t.Fatalf("Messages() = %v", msgs)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1] >= msgs[i] {
			t.Fatalf("not ascending at %d: %v >= %v", i, msgs[i-1], msgs[i])
		}
		if msgs[i].String() == "unknown" {
			t.Errorf("message %#x has no name", uint32(msgs[i]))
		}
	}
}
