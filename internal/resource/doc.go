// Package resource governs the memory, worker slots and IO bandwidth shared by
// the engines of one process.
//
//   - Memory: engines reserve their budget before allocating and release it
//     when they close. AcquireMemory blocks until the budget is available;
//     TryAcquireMemory fails fast.
//   - Workers: a slot semaphore caps how many engines run at once across
//     every pool sharing the controller.
//   - IO: a token bucket throttles graph and shard transfers.
//
// A nil *Controller imposes no limits, so callers never need to check for one:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   8 << 30,
//	    MaxWorkers:         16,
//	    IOLimitBytesPerSec: 200 << 20,
//	})
//	if err := rc.AcquireMemory(ctx, need); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(need)
package resource
