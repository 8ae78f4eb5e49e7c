package webhook

import (
	"time"

	"github.com/kilupskalvis/regidx/internal/models"
)

const (
	exponentialBase = time.Minute
	linearStep      = 5 * time.Minute
	fixedDelay      = 5 * time.Minute
)

// RetryDelay returns the wait before retry number attempt (1-based).
// Exponential doubles a one-minute base per attempt, linear grows by five
// minutes per attempt, fixed always waits five minutes. Unknown policies
// fall back to exponential.
func RetryDelay(policy models.RetryPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch policy {
	case models.RetryLinear:
		return time.Duration(attempt) * linearStep
	case models.RetryFixed:
		return fixedDelay
	default:
		return time.Duration(1<<uint(attempt)) * exponentialBase
	}
}
