package usecase

import (
	"errors"
	"fmt"
)

// SyncError embrulha a primeira falha irrecuperável de um sync de dia,
// junto com a data que estava sendo sincronizada.
type SyncError struct {
	Date string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync de %s falhou: %v", e.Date, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func IsSyncError(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr)
}
