package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operation names a mutating ledger operation.
type Operation string

// Ledger operations.
const (
	OperationCredit   Operation = "credit"
	OperationTransfer Operation = "transfer"
	OperationPurchase Operation = "purchase"
)

// IdempotencyRecord stores the outcome of a keyed ledger call so that a
// retry with the same key returns the original result. Fingerprint
// identifies the request the key was first used with.
type IdempotencyRecord struct {
	Key         string
	AccountID   uuid.UUID
	Operation   Operation
	Fingerprint string
	Balance     decimal.Decimal
	PurchaseID  uuid.UUID
	CreatedAt   time.Time
}

// RequestFingerprint hashes the operation and its arguments.
func RequestFingerprint(op Operation, args ...string) string {
	sum := sha256.Sum256([]byte(string(op) + "\x00" + strings.Join(args, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether the stored record was written by the same caller
// for the same request.
func (r *IdempotencyRecord) Matches(accountID uuid.UUID, op Operation, fingerprint string) bool {
	return r.AccountID == accountID && r.Operation == op && r.Fingerprint == fingerprint
}
