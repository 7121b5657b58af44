package cmdtable

import (
	"sync"

	m "github.com/wippyai/mci-runtime/mmsys"
)

var (
	builtinOnce   sync.Once
	builtinTables map[string][]byte
)

// Builtin serves the compiled-in core table and the standard device tables:
// waveaudio, sequencer, cdaudio and digitalvideo.
func Builtin() Source {
	builtinOnce.Do(func() {
		builtinTables = map[string][]byte{
			CoreType:       coreTable(),
			"waveaudio":    waveAudioTable(),
			"sequencer":    sequencerTable(),
			"cdaudio":      cdAudioTable(),
			"digitalvideo": digitalVideoTable(),
		}
	})
	return SourceFunc(func(deviceType string) ([]byte, error) {
		data, ok := builtinTables[deviceType]
		if !ok {
			return nil, ErrNotFound
		}
		return data, nil
	})
}

// MapSource serves tables from an in-memory map keyed by lower-case device type.
func MapSource(tables map[string][]byte) Source {
	return SourceFunc(func(deviceType string) ([]byte, error) {
		data, ok := tables[deviceType]
		if !ok {
			return nil, ErrNotFound
		}
		return data, nil
	})
}

func timeFormats(c *CommandBuilder) *CommandBuilder {
	return c.Constant("time format", m.SetTimeFormat).
		Integer("milliseconds", m.FormatMilliseconds).
		Integer("ms", m.FormatMilliseconds).
		Integer("hms", m.FormatHMS).
		Integer("msf", m.FormatMSF).
		Integer("frames", m.FormatFrames).
		Integer("smpte 24", m.FormatSMPTE24).
		Integer("smpte 25", m.FormatSMPTE25).
		Integer("smpte 30 drop", m.FormatSMPTE30Drop).
		Integer("smpte 30", m.FormatSMPTE30).
		Integer("bytes", m.FormatBytes).
		Integer("samples", m.FormatSamples).
		Integer("tmsf", m.FormatTMSF).
		EndConstant()
}

func statusItems(c *CommandBuilder) *CommandBuilder {
	return c.Integer("position", m.StatusPosition).
		Integer("length", m.StatusLength).
		Integer("number of tracks", m.StatusNumberOfTracks).
		Integer("mode", m.StatusMode).
		Integer("media present", m.StatusMediaPresent).
		Integer("time format", m.StatusTimeFormat).
		Integer("ready", m.StatusReady).
		Integer("current track", m.StatusCurrentTrack)
}

func openArgs(c *CommandBuilder) *CommandBuilder {
	return c.Notify().
		String("type", m.OpenType).
		String("element", m.OpenElement).
		String("alias", m.OpenAlias).
		Flag("shareable", m.OpenShareable)
}

func statusCommand(b *Builder, extra func(*CommandBuilder) *CommandBuilder) {
	c := b.Command("status", m.MsgStatus, ReturnInteger).Notify().
		Constant("", m.StatusItem)
	c = statusItems(c)
	if extra != nil {
		c = extra(c)
	}
	c.EndConstant().
		Integer("track", m.FlagTrack).
		Flag("start", m.StatusStart).
		End()
}

func setCommand(b *Builder, extra func(*CommandBuilder) *CommandBuilder) {
	c := b.Command("set", m.MsgSet, ReturnNone).Notify()
	c = timeFormats(c).
		Constant("audio", m.SetAudio).
		Integer("all", m.SetAudioAll).
		Integer("left", m.SetAudioLeft).
		Integer("right", m.SetAudioRight).
		EndConstant().
		Flag("door open", m.SetDoorOpen).
		Flag("door closed", m.SetDoorClosed).
		Flag("video", m.SetVideo).
		Flag("on", m.SetOn).
		Flag("off", m.SetOff)
	if extra != nil {
		c = extra(c)
	}
	c.End()
}

func coreTable() []byte {
	b := NewBuilder()

	openArgs(b.Command("open", m.MsgOpen, ReturnInteger)).End()
	b.Command("close", m.MsgClose, ReturnNone).Notify().End()
	b.Command("play", m.MsgPlay, ReturnNone).Notify().
		Integer("from", m.FlagFrom).
		Integer("to", m.FlagTo).
		End()
	b.Command("record", m.MsgRecord, ReturnNone).Notify().
		Integer("from", m.FlagFrom).
		Integer("to", m.FlagTo).
		Flag("insert", m.RecordInsert).
		Flag("overwrite", m.RecordOverwrite).
		End()
	b.Command("seek", m.MsgSeek, ReturnNone).Notify().
		Flag("to start", m.SeekToStart).
		Flag("to end", m.SeekToEnd).
		Integer("to", m.FlagTo).
		End()
	b.Command("stop", m.MsgStop, ReturnNone).Notify().End()
	b.Command("pause", m.MsgPause, ReturnNone).Notify().End()
	b.Command("resume", m.MsgResume, ReturnNone).Notify().End()
	statusCommand(b, nil)
	b.Command("capability", m.MsgGetDevCaps, ReturnInteger).Notify().
		Constant("", m.GetDevCapsItem).
		Integer("can record", m.CapsCanRecord).
		Integer("has audio", m.CapsHasAudio).
		Integer("has video", m.CapsHasVideo).
		Integer("device type", m.CapsDeviceType).
		Integer("uses files", m.CapsUsesFiles).
		Integer("compound device", m.CapsCompoundDevice).
		Integer("can eject", m.CapsCanEject).
		Integer("can play", m.CapsCanPlay).
		Integer("can save", m.CapsCanSave).
		EndConstant().
		End()
	b.Command("info", m.MsgInfo, ReturnString).Notify().
		Flag("product", m.InfoProduct).
		Flag("file", m.InfoFile).
		End()
	setCommand(b, nil)
	b.Command("sysinfo", m.MsgSysInfo, ReturnString).Notify().
		Flag("quantity", m.SysInfoQuantity).
		Flag("open", m.SysInfoOpen).
		Flag("installname", m.SysInfoInstallName).
		Integer("name", m.SysInfoName).
		End()
	b.Command("break", m.MsgBreak, ReturnNone).Notify().
		Integer("on", m.BreakKey).
		Flag("off", m.BreakOff).
		End()
	b.Command("save", m.MsgSave, ReturnNone).Notify().
		String("", m.SaveFile).
		End()
	b.Command("load", m.MsgLoad, ReturnNone).Notify().
		String("", m.LoadFile).
		End()

	return b.Bytes()
}

func waveAudioTable() []byte {
	b := NewBuilder()

	openArgs(b.Command("open", m.MsgOpen, ReturnInteger)).
		Integer("buffer", m.WaveOpenBuffer).
		End()
	statusCommand(b, func(c *CommandBuilder) *CommandBuilder {
		return c.Integer("format tag", m.WaveStatusFormatTag).
			Integer("channels", m.WaveStatusChannels).
			Integer("samplespersec", m.WaveStatusSamplesPerSec).
			Integer("bytespersec", m.WaveStatusAvgBytesSec).
			Integer("alignment", m.WaveStatusBlockAlign).
			Integer("bitspersample", m.WaveStatusBitsPerSample).
			Integer("level", m.WaveStatusLevel)
	})
	setCommand(b, func(c *CommandBuilder) *CommandBuilder {
		return c.Integer("input", m.WaveInput).
			Integer("output", m.WaveOutput).
			Constant("format tag", m.WaveSetFormatTag).
			Integer("pcm", m.WaveFormatPCM).
			EndConstant().
			Integer("channels", m.WaveSetChannels).
			Integer("samplespersec", m.WaveSetSamplesPerSec).
			Integer("bytespersec", m.WaveSetAvgBytesSec).
			Integer("alignment", m.WaveSetBlockAlign).
			Integer("bitspersample", m.WaveSetBitsPerSample)
	})
	b.Command("delete", m.MsgDelete, ReturnNone).Notify().
		Integer("from", m.FlagFrom).
		Integer("to", m.FlagTo).
		End()
	b.Command("cue", m.MsgCue, ReturnNone).Notify().
		Flag("input", m.WaveInput).
		Flag("output", m.WaveOutput).
		End()

	return b.Bytes()
}

func sequencerTable() []byte {
	b := NewBuilder()

	statusCommand(b, func(c *CommandBuilder) *CommandBuilder {
		return c.Integer("tempo", m.SeqStatusTempo).
			Integer("port", m.SeqStatusPort)
	})
	setCommand(b, func(c *CommandBuilder) *CommandBuilder {
		return c.Integer("tempo", m.SeqSetTempo).
			Integer("port", m.SeqSetPort)
	})

	return b.Bytes()
}

func cdAudioTable() []byte {
	b := NewBuilder()

	statusCommand(b, func(c *CommandBuilder) *CommandBuilder {
		return c.Integer("type", m.CDAStatusTypeTrack)
	})
	b.Command("info", m.MsgInfo, ReturnString).Notify().
		Flag("product", m.InfoProduct).
		Flag("identity", m.InfoIdentity).
		Flag("upc", m.InfoMediaUPC).
		End()

	return b.Bytes()
}

func digitalVideoTable() []byte {
	b := NewBuilder()

	openArgs(b.Command("open", m.MsgOpen, ReturnInteger)).
		Integer("style", m.DgvOpenWs).
		Integer("parent", m.DgvOpenParent).
		End()
	b.Command("put", m.MsgPut, ReturnNone).Notify().
		Rect("at", m.DgvRect).
		Flag("source", m.DgvSource).
		Flag("destination", m.DgvDestination).
		End()
	b.Command("where", m.MsgWhere, ReturnRect).Notify().
		Flag("source", m.DgvSource).
		Flag("destination", m.DgvDestination).
		End()
	b.Command("window", m.MsgWindow, ReturnNone).Notify().
		Integer("handle", m.DgvWindowHwnd).
		Integer("state", m.DgvWindowState).
		String("text", m.DgvWindowText).
		End()
	b.Command("realize", m.MsgRealize, ReturnNone).Notify().End()
	b.Command("update", m.MsgUpdate, ReturnNone).Notify().End()
	b.Command("freeze", m.MsgFreeze, ReturnNone).Notify().
		Rect("at", m.DgvRect).
		End()
	b.Command("unfreeze", m.MsgUnfreeze, ReturnNone).Notify().
		Rect("at", m.DgvRect).
		End()

	return b.Bytes()
}
