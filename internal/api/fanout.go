package api

import (
	"context"
	"sync"
)

// Call is one unit of a parallel page load. Run should write its result
// into state owned by the caller; FanOut only tracks the error outcome.
type Call struct {
	Name string
	Run  func(ctx context.Context) error
}

// Outcome is the per-call result of a fan-out. Errors stay attached to the
// call that produced them so independent widgets degrade individually.
type Outcome struct {
	Name string
	Err  error
}

// FanOut issues the calls in parallel and waits for all of them. A failing
// call never aborts its siblings; every call gets an Outcome in input
// order.
func FanOut(ctx context.Context, calls ...Call) []Outcome {
	outcomes := make([]Outcome, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			outcomes[i] = Outcome{Name: call.Name, Err: call.Run(ctx)}
		}(i, call)
	}
	wg.Wait()

	return outcomes
}
