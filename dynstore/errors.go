package dynstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrConditionFailed reports that a conditional write was rejected.
	// Callers translate it into their own duplicate-key or stale-version
	// errors.
	ErrConditionFailed = errors.New("conditional check failed")

	// ErrTooManyTransactItems reports a transaction over the service
	// limit. It is returned before any request is issued.
	ErrTooManyTransactItems = fmt.Errorf("transaction exceeds %d items", MaxTransactionItems)
)

// OperationError wraps a failed store call with the operation name, the
// table and key-value context for diagnosis.
type OperationError struct {
	Op      string
	Table   string
	Context map[string]string
	Err     error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dynstore: %s failed on table %s", e.Op, e.Table)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Context[k])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, " "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *OperationError) Unwrap() error { return e.Err }

// wrapErr normalizes SDK errors into an OperationError. Conditional
// failures, including those surfaced through a cancelled transaction,
// wrap ErrConditionFailed so callers can branch with errors.Is.
func (s *Store) wrapErr(op string, err error, kv map[string]string) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		err = fmt.Errorf("%w: %s", ErrConditionFailed, strOrEmpty(ccf.Message))
	}

	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				err = fmt.Errorf("%w: transaction cancelled", ErrConditionFailed)
				break
			}
		}
	}

	return &OperationError{Op: op, Table: s.table, Context: kv, Err: err}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
