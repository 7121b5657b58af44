package mmsys

import "sort"

// Message identifies a command sent to a driver.
type Message uint32

const (
	MsgOpenDriver  Message = 0x0801
	MsgCloseDriver Message = 0x0802
	MsgOpen        Message = 0x0803
	MsgClose       Message = 0x0804
	MsgEscape      Message = 0x0805
	MsgPlay        Message = 0x0806
	MsgSeek        Message = 0x0807
	MsgStop        Message = 0x0808
	MsgPause       Message = 0x0809
	MsgInfo        Message = 0x080A
	MsgGetDevCaps  Message = 0x080B
	MsgSpin        Message = 0x080C
	MsgSet         Message = 0x080D
	MsgStep        Message = 0x080E
	MsgRecord      Message = 0x080F
	MsgSysInfo     Message = 0x0810
	MsgBreak       Message = 0x0811
	MsgSave        Message = 0x0813
	MsgStatus      Message = 0x0814
	MsgCue         Message = 0x0830
	MsgRealize     Message = 0x0840
	MsgWindow      Message = 0x0841
	MsgPut         Message = 0x0842
	MsgWhere       Message = 0x0843
	MsgFreeze      Message = 0x0844
	MsgUnfreeze    Message = 0x0845
	MsgLoad        Message = 0x0850
	MsgCut         Message = 0x0851
	MsgCopy        Message = 0x0852
	MsgPaste       Message = 0x0853
	MsgUpdate      Message = 0x0854
	MsgResume      Message = 0x0855
	MsgDelete      Message = 0x0856
)

var messageNames = map[Message]string{
	MsgOpenDriver:  "open_driver",
	MsgCloseDriver: "close_driver",
	MsgOpen:        "open",
	MsgClose:       "close",
	MsgEscape:      "escape",
	MsgPlay:        "play",
	MsgSeek:        "seek",
	MsgStop:        "stop",
	MsgPause:       "pause",
	MsgInfo:        "info",
	MsgGetDevCaps:  "getdevcaps",
	MsgSpin:        "spin",
	MsgSet:         "set",
	MsgStep:        "step",
	MsgRecord:      "record",
	MsgSysInfo:     "sysinfo",
	MsgBreak:       "break",
	MsgSave:        "save",
	MsgStatus:      "status",
	MsgCue:         "cue",
	MsgRealize:     "realize",
	MsgWindow:      "window",
	MsgPut:         "put",
	MsgWhere:       "where",
	MsgFreeze:      "freeze",
	MsgUnfreeze:    "unfreeze",
	MsgLoad:        "load",
	MsgCut:         "cut",
	MsgCopy:        "copy",
	MsgPaste:       "paste",
	MsgUpdate:      "update",
	MsgResume:      "resume",
	MsgDelete:      "delete",
}

func (m Message) String() string {
	if s, ok := messageNames[m]; ok {
		return s
	}
	return "unknown"
}

// Messages returns every known message in ascending order.
func Messages() []Message {
	out := make([]Message, 0, len(messageNames))
	for m := range messageNames {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DeviceID names an open session. AllDevices is the broadcast sentinel.
type DeviceID uint32

const (
	AllDevices DeviceID = 0xFFFFFFFF

	// FirstDeviceID is the lowest id ever handed to a session.
	FirstDeviceID DeviceID = 1
)

// Flags shared by every command.
const (
	FlagNotify uint32 = 0x00000001
	FlagWait   uint32 = 0x00000002
	FlagFrom   uint32 = 0x00000004
	FlagTo     uint32 = 0x00000008
	FlagTrack  uint32 = 0x00000010
)

// Open flags.
const (
	OpenShareable uint32 = 0x00000100
	OpenElement   uint32 = 0x00000200
	OpenAlias     uint32 = 0x00000400
	OpenElementID uint32 = 0x00000800
	OpenTypeID    uint32 = 0x00001000
	OpenType      uint32 = 0x00002000
)

// Seek flags.
const (
	SeekToStart uint32 = 0x00000100
	SeekToEnd   uint32 = 0x00000200
)

// Status flags and items.
const (
	StatusItem  uint32 = 0x00000100
	StatusStart uint32 = 0x00000200

	StatusLength         uint32 = 0x00000001
	StatusPosition       uint32 = 0x00000002
	StatusNumberOfTracks uint32 = 0x00000003
	StatusMode           uint32 = 0x00000004
	StatusMediaPresent   uint32 = 0x00000005
	StatusTimeFormat     uint32 = 0x00000006
	StatusReady          uint32 = 0x00000007
	StatusCurrentTrack   uint32 = 0x00000008
)

// Info flags.
const (
	InfoProduct   uint32 = 0x00000100
	InfoFile      uint32 = 0x00000200
	InfoMediaUPC  uint32 = 0x00000400
	InfoIdentity  uint32 = 0x00000800
	InfoName      uint32 = 0x00001000
	InfoCopyright uint32 = 0x00002000
)

// GetDevCaps flags and items.
const (
	GetDevCapsItem uint32 = 0x00000100

	CapsCanRecord      uint32 = 0x00000001
	CapsHasAudio       uint32 = 0x00000002
	CapsHasVideo       uint32 = 0x00000003
	CapsDeviceType     uint32 = 0x00000004
	CapsUsesFiles      uint32 = 0x00000005
	CapsCompoundDevice uint32 = 0x00000006
	CapsCanEject       uint32 = 0x00000007
	CapsCanPlay        uint32 = 0x00000008
	CapsCanSave        uint32 = 0x00000009
)

// SysInfo flags.
const (
	SysInfoQuantity    uint32 = 0x00000100
	SysInfoOpen        uint32 = 0x00000200
	SysInfoName        uint32 = 0x00000400
	SysInfoInstallName uint32 = 0x00000800
)

// Set flags.
const (
	SetDoorOpen   uint32 = 0x00000100
	SetDoorClosed uint32 = 0x00000200
	SetTimeFormat uint32 = 0x00000400
	SetAudio      uint32 = 0x00000800
	SetVideo      uint32 = 0x00001000
	SetOn         uint32 = 0x00002000
	SetOff        uint32 = 0x00004000

	SetAudioAll   uint32 = 0x00000000
	SetAudioLeft  uint32 = 0x00000001
	SetAudioRight uint32 = 0x00000002
)

// Time formats.
const (
	FormatMilliseconds uint32 = 0
	FormatHMS          uint32 = 1
	FormatMSF          uint32 = 2
	FormatFrames       uint32 = 3
	FormatSMPTE24      uint32 = 4
	FormatSMPTE25      uint32 = 5
	FormatSMPTE30      uint32 = 6
	FormatSMPTE30Drop  uint32 = 7
	FormatBytes        uint32 = 8
	FormatSamples      uint32 = 9
	FormatTMSF         uint32 = 10
)

// Break flags.
const (
	BreakKey  uint32 = 0x00000100
	BreakHwnd uint32 = 0x00000200
	BreakOff  uint32 = 0x00000400
)

// Record, save and load flags.
const (
	RecordInsert    uint32 = 0x00000100
	RecordOverwrite uint32 = 0x00000200
	SaveFile        uint32 = 0x00000100
	LoadFile        uint32 = 0x00000100
)

// Waveform audio extensions.
const (
	WaveOpenBuffer       uint32 = 0x00010000
	WaveInput            uint32 = 0x00400000
	WaveOutput           uint32 = 0x00800000
	WaveFormatPCM        uint32 = 1
	WaveSetFormatTag     uint32 = 0x00010000
	WaveSetChannels      uint32 = 0x00020000
	WaveSetSamplesPerSec uint32 = 0x00040000
	WaveSetAvgBytesSec   uint32 = 0x00080000
	WaveSetBlockAlign    uint32 = 0x00100000
	WaveSetBitsPerSample uint32 = 0x00200000

	WaveStatusFormatTag     uint32 = 0x00004001
	WaveStatusChannels      uint32 = 0x00004002
	WaveStatusSamplesPerSec uint32 = 0x00004003
	WaveStatusAvgBytesSec   uint32 = 0x00004004
	WaveStatusBlockAlign    uint32 = 0x00004005
	WaveStatusBitsPerSample uint32 = 0x00004006
	WaveStatusLevel         uint32 = 0x00004007
)

// CD audio extensions.
const (
	CDAStatusTypeTrack uint32 = 0x00004001
)

// Sequencer extensions.
const (
	SeqSetTempo uint32 = 0x00010000
	SeqSetPort  uint32 = 0x00020000

	SeqStatusTempo uint32 = 0x00004002
	SeqStatusPort  uint32 = 0x00004003
)

// Digital video, animation and overlay extensions.
const (
	DgvRect        uint32 = 0x00010000
	DgvSource      uint32 = 0x00020000
	DgvDestination uint32 = 0x00040000
	DgvWindowHwnd  uint32 = 0x00010000
	DgvWindowState uint32 = 0x00040000
	DgvWindowText  uint32 = 0x00080000
	DgvOpenWs      uint32 = 0x00010000
	DgvOpenParent  uint32 = 0x00020000
	DgvInfoText    uint32 = 0x00010000
	DgvInfoItem    uint32 = 0x00020000
)

// Notification statuses passed to a Notifier.
const (
	NotifySuccessful uint32 = 0x0001
	NotifySuperseded uint32 = 0x0002
	NotifyAborted    uint32 = 0x0004
	NotifyFailure    uint32 = 0x0008
)
