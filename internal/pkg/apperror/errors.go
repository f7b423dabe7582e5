// Package apperror defines the error taxonomy shared by the identity,
// repository and session layers.
package apperror

import (
	"errors"
	"fmt"
)

type AuthErrorKind string
type StoreErrorKind string

const (
	AuthCancelled       AuthErrorKind = "cancelled"
	AuthProviderFailure AuthErrorKind = "provider_failure"
	AuthNotSignedIn     AuthErrorKind = "not_signed_in"

	StoreNotAuthenticated StoreErrorKind = "not_authenticated"
	StoreNotFound         StoreErrorKind = "not_found"
	StoreWriteFailure     StoreErrorKind = "write_failure"
	StoreReadFailure      StoreErrorKind = "read_failure"
)

// AuthError is returned by the identity client.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + string(e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so the sentinels below work
// with errors.Is regardless of the wrapped cause.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// StoreError is returned by profile and campaign repositories.
type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return "store: " + string(e.Kind)
	}
	return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	var t *StoreError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrAuthCancelled       = &AuthError{Kind: AuthCancelled}
	ErrAuthProviderFailure = &AuthError{Kind: AuthProviderFailure}
	ErrAuthNotSignedIn     = &AuthError{Kind: AuthNotSignedIn}

	ErrStoreNotAuthenticated = &StoreError{Kind: StoreNotAuthenticated}
	ErrStoreNotFound         = &StoreError{Kind: StoreNotFound}
	ErrStoreWriteFailure     = &StoreError{Kind: StoreWriteFailure}
	ErrStoreReadFailure      = &StoreError{Kind: StoreReadFailure}

	// ErrNotAuthenticated is raised by the session layer itself when an
	// operation needs an authenticated session.
	ErrNotAuthenticated = errors.New("user not authenticated")
)

func Cancelled(err error) error {
	return &AuthError{Kind: AuthCancelled, Err: err}
}

func ProviderFailure(err error) error {
	return &AuthError{Kind: AuthProviderFailure, Err: err}
}

func NotSignedIn() error {
	return &AuthError{Kind: AuthNotSignedIn}
}

func NotAuthenticatedStore(uid string) error {
	return &StoreError{Kind: StoreNotAuthenticated, Err: fmt.Errorf("no identity for uid %q", uid)}
}

func ReadFailure(err error) error {
	return &StoreError{Kind: StoreReadFailure, Err: err}
}

func WriteFailure(err error) error {
	return &StoreError{Kind: StoreWriteFailure, Err: err}
}

// IsNotAuthenticated reports both the session-level and the store-level
// flavour of "no identity".
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrStoreNotAuthenticated)
}
