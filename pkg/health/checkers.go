package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck returns a check failing when the process exceeds
// threshold goroutines, a cheap proxy for leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return fmt.Errorf("too many goroutines: %d > %d", n, threshold)
		}
		return nil
	}
}
