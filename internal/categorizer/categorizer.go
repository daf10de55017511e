// Package categorizer turns sanitized statement text into a categorized
// transaction table by calling a generative model.
package categorizer

import (
	"context"
	"errors"
	"fmt"
)

// ErrResponseTruncated is returned together with the partial table when the
// model stopped because it hit its output limit. Callers still persist the
// table but must warn that the batch may be incomplete.
var ErrResponseTruncated = errors.New("response truncated at the output size limit")

// GatewayError reports a failed categorization call (auth, quota, network,
// malformed request, empty response). Nothing should be persisted.
type GatewayError struct {
	Model string
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("categorization via %s failed: %v", e.Model, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Categorizer provides the categorization boundary.
// This interface enables mocking and testing of the pipeline.
type Categorizer interface {
	// Categorize returns the model's CSV table verbatim. On truncation it returns
	// the partial table and ErrResponseTruncated; on failure a *GatewayError.
	Categorize(ctx context.Context, statementText string, currentYear int) (string, error)
}
