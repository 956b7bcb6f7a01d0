package suite

import (
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
)

// DefaultRetryLimit is how many times a failed scenario is re-run.
const DefaultRetryLimit = 2

// RetryPolicy decides whether a failed scenario runs again.
// failures counts the failed attempts so far, including the current one.
type RetryPolicy interface {
	ShouldRetry(name string, failures int, err error) bool
}

// LimitRetry re-runs a scenario up to Limit times. Configuration errors are
// never retried since another attempt cannot fix them.
type LimitRetry struct {
	Limit int
}

// ShouldRetry implements RetryPolicy.
func (p LimitRetry) ShouldRetry(name string, failures int, err error) bool {
	if err == nil || core.IsConfigError(err) {
		return false
	}
	if failures > p.Limit {
		return false
	}
	logger.Info("Going to retry test case: %s, %d out of %d", name, failures, p.Limit)
	return true
}

// NoRetry never re-runs a scenario.
type NoRetry struct{}

// ShouldRetry implements RetryPolicy.
func (NoRetry) ShouldRetry(string, int, error) bool { return false }
