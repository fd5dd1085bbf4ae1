// Package realtime drives a tickfsm engine at a fixed tick rate.
//
// The engines themselves are synchronous and not safe for concurrent use;
// they expect the caller to supply a non-decreasing monotonic timestamp on
// every tick. A Driver owns one engine together with its context, reads a
// Clock on every tick, and serialises ticks with requests, resets and
// context access coming from other goroutines.
//
// # Example Usage
//
//	m := tickfsm.NewMachine[Robot, Key](idle)
//	d := realtime.NewDriver(realtime.Dynamic(m), &robot, realtime.Config{
//		TickRate: 10 * time.Millisecond, // 100 Hz control loop
//	})
//	d.Start(ctx)
//	defer d.Stop()
//	d.Request(Done)
//
// # Determinism
//
// Step runs one tick at the current clock reading without the ticker, so a
// test (or a replay) can feed the engine from a fake Clock and obtain the
// exact same sequence of hooks on every run.
//
// # Failure handling
//
// Errors returned by the bounded engine and panics raised by hooks or by the
// dynamic engine are logged and counted; the tick loop keeps running. Use
// Config.OnError to reset the machine or cancel the context given to Start.
package realtime
