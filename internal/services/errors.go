package services

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrNoBillingAddress  = errors.New("billing address incomplete")
	ErrAlreadyOwned      = errors.New("lead already owned or no longer available")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrAccountNotFound   = errors.New("account not found")

	// ErrLedgerInvariant marks balance math inconsistencies. Never
	// recovered automatically; the operation aborts and surfaces as an
	// internal error.
	ErrLedgerInvariant = errors.New("ledger invariant violation")
)

// BlockReason is the caller-facing code for a purchase precondition
// failure. Each reason maps to a distinct remediation on the client
// (fill billing form, drop stale lead, deposit funds).
type BlockReason string

const (
	BlockNoBillingAddress    BlockReason = "NO_BILLING_ADDRESS"
	BlockAlreadyOwned        BlockReason = "ALREADY_OWNED"
	BlockInsufficientBalance BlockReason = "INSUFFICIENT_BALANCE"
)

// Message returns the human-readable description for the reason.
func (r BlockReason) Message() string {
	switch r {
	case BlockNoBillingAddress:
		return "A complete billing address is required before purchasing"
	case BlockAlreadyOwned:
		return "Lead is already owned or no longer available"
	case BlockInsufficientBalance:
		return "Account balance is too low for this purchase"
	default:
		return "Purchase blocked"
	}
}

// blockReasonFor translates a precondition sentinel into its wire code.
// Commit-time races surface through the same codes as up-front checks.
func blockReasonFor(err error) (BlockReason, bool) {
	switch {
	case errors.Is(err, ErrNoBillingAddress):
		return BlockNoBillingAddress, true
	case errors.Is(err, ErrAlreadyOwned):
		return BlockAlreadyOwned, true
	case errors.Is(err, ErrInsufficientFunds):
		return BlockInsufficientBalance, true
	}
	return "", false
}
