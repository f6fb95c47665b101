package repository

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Kind classifies why the store rejected a write.
type Kind int

const (
	KindTransient Kind = iota
	KindConstraint
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindConstraint:
		return "constraint"
	case KindPolicy:
		return "policy"
	default:
		return "transient"
	}
}

const (
	policyViolationMessage  = `new row violates row-level security policy for table "urls"`
	shortCodeTakenMessage   = `duplicate key value violates unique constraint "urls_short_code_key"`
	emailTakenMessage       = `duplicate key value violates unique constraint "users_email_key"`
	storeUnavailableMessage = "link store is unavailable"
)

// StoreError is a rejected write. Message is meant to be shown to the
// user as is.
type StoreError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(kind Kind, msg string, err error) *StoreError {
	return &StoreError{Kind: kind, Message: msg, Err: err}
}

func transientError(op string, err error) *StoreError {
	return newStoreError(KindTransient, storeUnavailableMessage, fmt.Errorf("%s: %w", op, err))
}

// IsKind reports whether err is a StoreError of the given kind.
func IsKind(err error, kind Kind) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind == kind
	}
	return false
}

// checkInsertPolicy mirrors the row-level policy of the hosted store:
// only an authenticated owner may create rows.
func checkInsertPolicy(owner string) error {
	if owner == "" {
		return newStoreError(KindPolicy, policyViolationMessage, nil)
	}
	return nil
}
