package domain

import (
	"errors"
)

// Kind is the stable, machine-readable category of a domain failure.
type Kind string

// Error kinds surfaced to callers of the ledger.
const (
	KindInvalidAmount         Kind = "InvalidAmount"
	KindInsufficientFunds     Kind = "InsufficientFunds"
	KindSelfTransferForbidden Kind = "SelfTransferForbidden"
	KindRecipientNotFound     Kind = "RecipientNotFound"
	KindItemNotFound          Kind = "ItemNotFound"
	KindInvalidCatalogState   Kind = "InvalidCatalogState"
	KindDuplicateUsername     Kind = "DuplicateUsername"
	KindNotFound              Kind = "NotFound"
	KindStorageUnavailable    Kind = "StorageUnavailable"
	KindIndeterminate         Kind = "Indeterminate"
	KindRateUnavailable       Kind = "RateUnavailable"
	KindUnauthorized          Kind = "Unauthorized"
	KindValidation            Kind = "Validation"
	KindIdempotencyConflict   Kind = "IdempotencyConflict"
	KindDuplicateRequest      Kind = "DuplicateRequest"
	KindBalanceConflict       Kind = "BalanceConflict"
)

// Error is a domain failure carrying a stable kind and a message that is safe
// to show to end users. The underlying cause is kept for logging only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Ledger errors
var (
	// ErrInvalidAmount is returned when an amount is not strictly positive or
	// has more precision than balances are stored with.
	ErrInvalidAmount = &Error{Kind: KindInvalidAmount, Message: "amount must be a positive value with at most 2 decimal places"}
	// ErrInsufficientFunds is returned when a debit would make a balance negative.
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	// ErrSelfTransferForbidden is returned when the sender and recipient are the same account.
	ErrSelfTransferForbidden = &Error{Kind: KindSelfTransferForbidden, Message: "cannot pay yourself"}
	// ErrRecipientNotFound is returned when the transfer recipient does not exist.
	ErrRecipientNotFound = &Error{Kind: KindRecipientNotFound, Message: "recipient does not exist"}
	// ErrItemNotFound is returned when a purchased item is not in the catalog.
	ErrItemNotFound = &Error{Kind: KindItemNotFound, Message: "item does not exist"}
	// ErrInvalidCatalogState is returned when a catalog item carries a non-positive price.
	ErrInvalidCatalogState = &Error{Kind: KindInvalidCatalogState, Message: "item is not available for purchase"}
	// ErrDuplicateUsername is returned when registering a username that is already taken.
	ErrDuplicateUsername = &Error{Kind: KindDuplicateUsername, Message: "username already exists"}
	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "account not found"}
	// ErrStorageUnavailable is returned when the store fails before anything was committed.
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "storage is temporarily unavailable, please retry"}
	// ErrIndeterminate is returned when the outcome of a commit is unknown.
	// Callers must check the statement before retrying.
	ErrIndeterminate = &Error{Kind: KindIndeterminate, Message: "operation outcome is unknown, check your statement before retrying"}
	// ErrBalanceConflict is returned when a balance changed under a conditional update.
	ErrBalanceConflict = &Error{Kind: KindBalanceConflict, Message: "balance changed concurrently, please retry"}
)

// Collaborator and surface errors
var (
	// ErrRateUnavailable is returned when a display conversion rate cannot be obtained.
	ErrRateUnavailable = &Error{Kind: KindRateUnavailable, Message: "currency conversion failed"}
	// ErrUnauthorized is returned when credentials are missing or wrong.
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	// ErrValidation is returned when input validation fails
	ErrValidation = &Error{Kind: KindValidation, Message: "invalid input"}
	// ErrIdempotencyConflict is returned when an idempotency key is reused for a different request.
	ErrIdempotencyConflict = &Error{Kind: KindIdempotencyConflict, Message: "idempotency key was already used for a different request"}
	// ErrDuplicateRequest is returned when an idempotency key is stored concurrently by another request.
	ErrDuplicateRequest = &Error{Kind: KindDuplicateRequest, Message: "request is already being processed"}
)

// Wrap returns a copy of sentinel that carries cause.
func Wrap(sentinel *Error, cause error) error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}

// WithMessage returns a copy of sentinel with a more specific message.
func WithMessage(sentinel *Error, msg string) error {
	return &Error{Kind: sentinel.Kind, Message: msg}
}

// KindOf returns the kind of err, or StorageUnavailable for errors that did
// not originate in the domain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageUnavailable
}

// AsStorageError leaves domain errors untouched and hides anything else
// behind ErrStorageUnavailable.
func AsStorageError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(ErrStorageUnavailable, err)
}
