// Package mciruntime provides a Go implementation of a Multimedia Control command engine.
//
// Applications address heterogeneous multimedia drivers through one textual command
// protocol ("play mysong from 0 to 500 wait") or a structured message interface, while
// drivers may expect either the flat parameter layout or the legacy segmented one.
//
// # Architecture Overview
//
//	mciruntime/          Root package with the Memory, Allocator and AddressSpace interfaces
//	├── runtime/         High-level System: SendString / SendCommand
//	├── dispatch/        Dispatcher state machine and result formatting
//	├── parser/          Command string tokenizer and option argument parser
//	├── cmdtable/        Binary command table decoding, validation and caching
//	├── registry/        Open driver sessions and device id allocation
//	├── transcoder/      Parameter block marshaling between calling conventions
//	├── driver/          Driver contracts, catalog, Lua and WebAssembly drivers
//	├── memory/          Heap-backed address spaces
//	├── mmsys/           Protocol constants (messages, flags, device types)
//	├── resource/        Generation-tagged handle arena
//	└── errors/          Structured error types and the numeric error taxonomy
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
//	ret, err := sys.SendString(ctx, "open mysound.wav alias snd", 128)
//	if err != nil {
//	    fmt.Println(errors.Text(errors.CodeOf(err)))
//	}
//	fmt.Println(ret) // "1"
//
// # Calling Conventions
//
// A parameter block is a run of 32-bit slots in an AddressSpace. Flat drivers read the
// caller's block directly. Legacy drivers own a separate address space (for WebAssembly
// drivers, their linear memory) and expect some fields narrowed to 16 bits; the
// transcoder copies blocks across and back for the duration of one call.
//
// # Thread Safety
//
// System, Dispatcher and Registry are safe for concurrent use. Driver calls run outside the
// registry lock and are never cancelled once started.
package mciruntime
