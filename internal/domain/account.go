package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the typed ledger account kind. Lookups always go through
// ParseAccountType so stray casing in stored data cannot leak in.
type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeWallet  AccountType = "WALLET"
	AccountTypeCurrent AccountType = "CURRENT"
)

// ParseAccountType normalizes a raw account type string.
func ParseAccountType(raw string) (AccountType, bool) {
	switch AccountType(raw) {
	case AccountTypeSavings, AccountTypeWallet, AccountTypeCurrent:
		return AccountType(raw), true
	}
	return "", false
}

// Account is a balance-bearing ledger account. Balance moves only through
// AccountRepository.AdjustBalance, which is atomic at the store.
type Account struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OwnerID   string          `json:"owner_id" db:"owner_id"`
	Type      AccountType     `json:"type" db:"type"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
