// Package verify wraps the external face-match service. The match itself
// is a black box: the kiosk flow only needs a yes/no per (employee, image).
package verify

import "context"

// Verifier answers whether the captured face sample belongs to the
// employee. Implementations must not be consulted before the badge token
// has been cryptographically validated.
type Verifier interface {
	Verify(ctx context.Context, employeeID, imageB64 string) (bool, error)
}

// Static is a fixed-answer verifier for development and tests.
type Static struct {
	Verified bool
}

var _ Verifier = Static{}

func (s Static) Verify(ctx context.Context, employeeID, imageB64 string) (bool, error) {
	return s.Verified, nil
}
