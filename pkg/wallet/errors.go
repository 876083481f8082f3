package wallet

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedChainType = errors.New("unsupported chain type")
	ErrDerivationFailure    = errors.New("key derivation failed")
	ErrIncompleteRecord     = errors.New("incomplete wallet record")
	ErrInvalidKey           = errors.New("invalid key encoding")
)

// DerivationError wraps a failure of the underlying key primitive.
type DerivationError struct {
	Chain ChainType
	Op    string
	Err   error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Chain, e.Op, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

func (e *DerivationError) Is(target error) bool {
	return target == ErrDerivationFailure
}
