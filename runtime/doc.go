// Package runtime assembles the command engine.
//
// # Quick Start
//
//	cat := driver.NewCatalog()
//	cat.Register("waveaudio", luadrv.Factory(script))
//	cat.RegisterExtension("wav", "waveaudio")
//
//	sys, err := runtime.New(runtime.Config{Catalog: cat})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sys.Close(ctx)
//
//	id, err := sys.SendString(ctx, "open mysound.wav alias ding", 0)
//	pos, err := sys.SendString(ctx, "status ding position", 0)
//	_, err = sys.SendString(ctx, "close all", 0)
//
// # Results
//
// SendString returns the command's reply as text: the device id for open,
// a number, a mode name or a time for status, nothing for most actions.
// Failures are *errors.Error values; errors.CodeOf gives the numeric status
// and errors.Text its message.
//
// SendCommand is the binary entry point. The caller lays the parameter
// block out in its own address space and names its convention:
//
//	blk := ... // 16 words in as
//	raw, err := sys.SendCommand(ctx, dispatch.Call{
//	    Mem:     as,
//	    Device:  id,
//	    Message: mmsys.MsgStatus,
//	    Flags:   mmsys.StatusItem,
//	    Params:  blk,
//	})
//
// # Logging
//
// Config.Logger, or SetLogger, installs one zap logger into every package.
// Each package gets a named child: registry, parser, dispatch, driver,
// luadrv and wasmdrv.
//
// # Thread Safety
//
// System is safe for concurrent use. Commands to the same session are not
// ordered against each other; drivers serialize their own calls.
package runtime
