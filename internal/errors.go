package internal

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/status-im/status-identity-go/pkg/wallet"
)

var (
	ErrCorruptStoredRecord      = errors.New("stored wallet record is corrupt")
	ErrPersistenceFailure       = errors.New("persistence failure")
	ErrRegenerationInProgress   = errors.New("regeneration already in progress for this device")
	ErrRegenerationNotConfirmed = errors.New("regeneration requires explicit confirmation")
	ErrCompanionCollision       = errors.New("pairing identifier collides with the local device")
	ErrWalletExists             = errors.New("device already has a different wallet")
	ErrChainMismatch            = errors.New("stored wallet uses a different chain")
	ErrRevealNotConfirmed       = errors.New("revealing the mnemonic requires explicit confirmation")
	ErrNoActiveDevice           = errors.New("no active device")
)

// PersistenceError wraps a store failure with the operation and key involved.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// IsRetryable reports failures of the key primitive or of the store, which
// callers may retry; validation failures are final.
func IsRetryable(err error) bool {
	return errors.Is(err, wallet.ErrDerivationFailure) || errors.Is(err, ErrPersistenceFailure)
}
