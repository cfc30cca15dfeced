package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/platform/sentinel"
)

// ConcurrentResult counts outcomes of racing operations by error class.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Forbidden int32
	Errors    int32
}

// Total returns the number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Forbidden + r.Errors
}

// RunConcurrent starts goroutines copies of fn behind a shared barrier so they
// contend as closely as possible, then classifies each result. Store sentinels
// and domain error codes are both recognized.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, notFounds, forbidden, errs atomic.Int32
	start := make(chan struct{})

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict) || dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			case dErrors.HasCode(err, dErrors.CodeForbidden):
				forbidden.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Forbidden: forbidden.Load(),
		Errors:    errs.Load(),
	}
}
