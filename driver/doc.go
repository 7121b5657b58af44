// Package driver defines the contract between the command engine and device
// drivers, and the Catalog that installs drivers by device type.
//
// Every driver, whatever it is built with, exposes the same three calls:
// open (through a Loader), Send and Close. A driver also reports its calling
// Convention; parameter blocks are marshaled between conventions by the
// dispatcher, never by the driver.
//
//	cat := driver.NewCatalog()
//	cat.Register("waveaudio", luadrv.Factory(script))
//	cat.RegisterExtension("wav", "waveaudio")
//
// Drivers can opt into more behavior by implementing TableProvider (their own
// command table), StringTable (their own resource strings) or
// AddressSpaceProvider (legacy drivers that own their memory).
//
// Bundled implementations live in the luadrv (scripted flat drivers) and
// wasmdrv (sandboxed legacy drivers) sub-packages.
package driver
