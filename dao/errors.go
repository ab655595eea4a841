package dao

import (
	"fmt"

	"github.com/raywall/single-table-toolkit/validate"
)

// ValidationError reports that an item failed validation before a write.
// The full Result is attached so callers can inspect every finding.
type ValidationError struct {
	EntityType string
	Result     *validate.Result
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("dao: %s failed validation with %d error(s)", e.EntityType, len(e.Result.Errors))
	if len(e.Result.Errors) > 0 {
		msg += ": " + e.Result.Errors[0].Message
	}
	return msg
}

// NotFoundError reports an operation against an item that does not exist.
type NotFoundError struct {
	PK string
	SK string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dao: item not found (pk=%s sk=%s)", e.PK, e.SK)
}

// DuplicateKeyError reports a create against a key that already exists.
type DuplicateKeyError struct {
	PK string
	SK string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("dao: item already exists (pk=%s sk=%s)", e.PK, e.SK)
}

// DuplicateEmailError reports a user create with an email that is
// already registered.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("dao: email %s is already registered", e.Email)
}

// OptimisticLockError reports a write that lost a concurrent-update
// race: the stored version no longer matched the version read.
type OptimisticLockError struct {
	PK              string
	SK              string
	ExpectedVersion int
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("dao: concurrent update detected (pk=%s sk=%s expected version %d)",
		e.PK, e.SK, e.ExpectedVersion)
}
