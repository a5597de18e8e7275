package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Account holds a vendor's pre-funded balance. The balance is mutated
// only through ledger credits and debits, never directly.
type Account struct {
	AccountID string    `json:"account_id" db:"account_id"`
	Balance   int64     `json:"balance" db:"balance"` // in cents
	Version   int       `json:"version" db:"version"` // for optimistic locking
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction types
const (
	TxTypeDeposit    = "DEPOSIT"
	TxTypePurchase   = "PURCHASE"
	TxTypeAdjustment = "ADJUSTMENT"
	TxTypeReward     = "REWARD"
)

// Transaction is one immutable ledger record. Amount is signed (debits
// negative) and BalanceAfter is the account balance once this record is
// applied, so replaying the log from zero reproduces the balance.
type Transaction struct {
	ID           string    `json:"id" db:"id"`
	AccountID    string    `json:"account_id" db:"account_id"`
	Type         string    `json:"type" db:"type"`
	Amount       int64     `json:"amount" db:"amount"` // in cents, signed
	BalanceAfter int64     `json:"balance_after" db:"balance_after"`
	Description  string    `json:"description" db:"description"`
	Metadata     Metadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Metadata type for JSONB fields
type Metadata map[string]any

// Value implements driver.Valuer for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for Metadata
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, m)
}
