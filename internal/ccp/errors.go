package ccp

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

// SaveError means the panel answered a save without confirming it. The domain
// keeps its pending changes and can be saved again.
type SaveError struct {
	DomainID string
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving domain %s was not confirmed by the panel", e.DomainID)
}
