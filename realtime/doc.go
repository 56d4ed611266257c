// Package realtime provides the cooperative poll loop that drives a
// pollfsm.Machine.
//
// Each cycle runs in three phases on one goroutine:
//  1. Poll sources (timers, button panels) so they can post events
//  2. Machine.Tick, which applies at most one queued event
//  3. The Runner's do-action for the current state
//
// Cycles are paced by a TickSource. IntervalSource wraps time.Ticker for
// devices with a real clock; ManualSource lets tests and foreign schedulers
// decide when a cycle runs. The machine itself never sleeps.
//
// # Example Usage
//
//	rt := realtime.NewRuntime(machine, realtime.Config{
//		TickRate: 100 * time.Millisecond,
//		DoAction: runner.DoAction,
//	})
//	rt.AddPoller(realtime.Counting(panel))
//	err := rt.Run(ctx)
package realtime
