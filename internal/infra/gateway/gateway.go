package gateway

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

var (
	// ErrInvalidSignature is returned when a callback MAC does not match; the
	// caller must fail closed and mutate nothing.
	ErrInvalidSignature = errors.New("gateway: invalid callback signature")

	// ErrQueryNotSupported marks adapters without a reconciliation endpoint.
	ErrQueryNotSupported = errors.New("gateway: status query not supported")
)

// ExternalGatewayError wraps network or non-2xx failures from the gateway.
// It is retryable: it only occurs after the order is committed, so no order
// or inventory state was mutated.
type ExternalGatewayError struct {
	Gateway string
	Err     error
}

func (e *ExternalGatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Gateway, e.Err)
}

func (e *ExternalGatewayError) Unwrap() error { return e.Err }

// PaymentOrder carries the order fields an adapter needs to build a request.
type PaymentOrder struct {
	OrderNumber string
	Amount      int64 // VND
	Description string
	UserID      uint64
	ClientIP    string
}

type PaymentRequest struct {
	RedirectURL string
	// Reference is the gateway-side transaction reference. It embeds the
	// order number plus a timestamp so retries stay unique gateway-side while
	// remaining reversible to the order.
	Reference string
}

type PaymentState string

const (
	StatePaid    PaymentState = "paid"
	StatePending PaymentState = "pending"
	StateFailed  PaymentState = "failed"
)

// CallbackResult is a verified, parsed inbound callback.
type CallbackResult struct {
	Reference     string
	Amount        int64 // VND
	Succeeded     bool
	TransactionID string
}

// AckOutcome selects which gateway-documented acknowledgment to emit. Gateways
// retry callbacks until they see their own success code, so every processing
// branch must map to exactly one of these.
type AckOutcome int

const (
	AckSuccess AckOutcome = iota
	AckAlreadyConfirmed
	AckOrderNotFound
	AckAmountMismatch
	AckInvalidSignature
	AckInternalError
)

// Adapter is the shared signing contract; one implementation per gateway.
// Canonicalization of the signed field set is gateway-specific and must match
// the provider's specification byte for byte.
type Adapter interface {
	Name() string
	BuildPaymentRequest(ctx context.Context, order PaymentOrder) (*PaymentRequest, error)
	// ParseCallback verifies the signature over the raw payload (JSON body or
	// raw query string, per gateway) before returning any parsed data.
	ParseCallback(raw []byte) (*CallbackResult, error)
	OrderNumberFromReference(reference string) (string, error)
	// Ack returns the JSON-serializable acknowledgment body for an outcome.
	Ack(outcome AckOutcome) any
	QueryStatus(ctx context.Context, reference string) (PaymentState, error)
}

func hmacHex(newHash func() hash.Hash, key, data string) string {
	mac := hmac.New(newHash, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// macEqual compares two hex MACs in constant time.
func macEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
