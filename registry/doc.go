// Package registry tracks open device sessions.
//
// A Registry hands out device ids (the lowest free id at or above a floor),
// resolves device names to sessions and owns the lifecycle of each session's
// driver. Opening reserves an id under the registry lock, then loads the
// driver with the lock released, so a slow driver never blocks lookups:
//
//	reg := registry.New(registry.Config{Loader: catalog})
//	s, err := reg.Open(ctx, registry.OpenRequest{DeviceType: "waveaudio", Alias: "snd"})
//	...
//	err = reg.Close(ctx, s.ID, notify)
//
// Closing an id that is not open fails with an invalid-device-id error, so a
// session is closed at most once.
package registry
