package mmsys

import "strings"

// Return-encoding tags carried in the high word of a driver result.
// The low word stays the sole success or failure signal.
const (
	ReturnResource       uint32 = 0x00010000
	ReturnColonized3     uint32 = 0x00020000
	ReturnColonized4     uint32 = 0x00040000
	ReturnInteger        uint32 = 0x00080000
	ReturnResourceDriver uint32 = 0x00100000

	tagMask     uint32 = 0xFFFF0000
	lowWordMask uint32 = 0x0000FFFF
)

// Tag returns the return-encoding tag bits of a result.
func Tag(result uint32) uint32 {
	return result & tagMask
}

// StripTag removes any return-encoding tag from a result.
func StripTag(result uint32) uint32 {
	return result & lowWordMask
}

// StringOffset is the first id of the core resource string table.
const StringOffset uint32 = 512

// Device type ids. They double as core string ids naming the type.
const (
	DevTypeVCR           uint32 = StringOffset + 1
	DevTypeVideodisc     uint32 = StringOffset + 2
	DevTypeOverlay       uint32 = StringOffset + 3
	DevTypeCDAudio       uint32 = StringOffset + 4
	DevTypeDAT           uint32 = StringOffset + 5
	DevTypeScanner       uint32 = StringOffset + 6
	DevTypeAnimation     uint32 = StringOffset + 7
	DevTypeDigitalVideo  uint32 = StringOffset + 8
	DevTypeOther         uint32 = StringOffset + 9
	DevTypeWaveformAudio uint32 = StringOffset + 10
	DevTypeSequencer     uint32 = StringOffset + 11
)

// Mode ids returned by status mode.
const (
	ModeNotReady uint32 = StringOffset + 12
	ModeStop     uint32 = StringOffset + 13
	ModePlay     uint32 = StringOffset + 14
	ModeRecord   uint32 = StringOffset + 15
	ModeSeek     uint32 = StringOffset + 16
	ModePause    uint32 = StringOffset + 17
	ModeOpen     uint32 = StringOffset + 18
)

// Boolean ids.
const (
	False uint32 = StringOffset + 19
	True  uint32 = StringOffset + 20
)

// FormatStringBase is the core string id of FormatMilliseconds; every other
// time format follows in order.
const FormatStringBase uint32 = StringOffset + 21

var coreStrings = map[uint32]string{
	DevTypeVCR:           "vcr",
	DevTypeVideodisc:     "videodisc",
	DevTypeOverlay:       "overlay",
	DevTypeCDAudio:       "cdaudio",
	DevTypeDAT:           "dat",
	DevTypeScanner:       "scanner",
	DevTypeAnimation:     "animation",
	DevTypeDigitalVideo:  "digitalvideo",
	DevTypeOther:         "other",
	DevTypeWaveformAudio: "waveaudio",
	DevTypeSequencer:     "sequencer",

	ModeNotReady: "not ready",
	ModeStop:     "stopped",
	ModePlay:     "playing",
	ModeRecord:   "recording",
	ModeSeek:     "seeking",
	ModePause:    "paused",
	ModeOpen:     "open",

	False: "false",
	True:  "true",

	FormatStringBase + FormatMilliseconds: "milliseconds",
	FormatStringBase + FormatHMS:          "hms",
	FormatStringBase + FormatMSF:          "msf",
	FormatStringBase + FormatFrames:       "frames",
	FormatStringBase + FormatSMPTE24:      "smpte 24",
	FormatStringBase + FormatSMPTE25:      "smpte 25",
	FormatStringBase + FormatSMPTE30:      "smpte 30",
	FormatStringBase + FormatSMPTE30Drop:  "smpte 30 drop",
	FormatStringBase + FormatBytes:        "bytes",
	FormatStringBase + FormatSamples:      "samples",
	FormatStringBase + FormatTMSF:         "tmsf",
}

// CoreString looks up a string in the core resource string table.
func CoreString(id uint32) (string, bool) {
	s, ok := coreStrings[id]
	return s, ok
}

// DeviceTypeName returns the canonical name for a device type id.
func DeviceTypeName(id uint32) (string, bool) {
	if id < DevTypeVCR || id > DevTypeSequencer {
		return "", false
	}
	return coreStrings[id], true
}

// DeviceTypeID performs the reverse lookup of DeviceTypeName, ignoring case.
func DeviceTypeID(name string) (uint32, bool) {
	for id := DevTypeVCR; id <= DevTypeSequencer; id++ {
		if strings.EqualFold(coreStrings[id], name) {
			return id, true
		}
	}
	return 0, false
}

// DeviceKind selects the parameter block layouts a device type uses.
type DeviceKind uint8

const (
	KindGeneric DeviceKind = iota
	KindWaveAudio
	KindSequencer
	KindCDAudio
	KindAnimation
	KindOverlay
	KindDigitalVideo
	KindVCR
)

// KindOf maps a device type name onto its layout kind. Unknown types are generic.
func KindOf(deviceType string) DeviceKind {
	id, ok := DeviceTypeID(deviceType)
	if !ok {
		return KindGeneric
	}
	switch id {
	case DevTypeWaveformAudio:
		return KindWaveAudio
	case DevTypeSequencer:
		return KindSequencer
	case DevTypeCDAudio:
		return KindCDAudio
	case DevTypeAnimation:
		return KindAnimation
	case DevTypeOverlay:
		return KindOverlay
	case DevTypeDigitalVideo:
		return KindDigitalVideo
	case DevTypeVCR:
		return KindVCR
	}
	return KindGeneric
}

func (k DeviceKind) String() string {
	switch k {
	case KindWaveAudio:
		return "waveaudio"
	case KindSequencer:
		return "sequencer"
	case KindCDAudio:
		return "cdaudio"
	case KindAnimation:
		return "animation"
	case KindOverlay:
		return "overlay"
	case KindDigitalVideo:
		return "digitalvideo"
	case KindVCR:
		return "vcr"
	}
	return "generic"
}
