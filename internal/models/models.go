package models

import (
	"time"
)

// RefuelStatus tracks the lifecycle of one triggered refuel.
type RefuelStatus string

const (
	RefuelStatusTriggered RefuelStatus = "triggered" // decision made, dispatch in progress
	RefuelStatusSubmitted RefuelStatus = "submitted" // autoRefuel confirmed on-chain
	RefuelStatusFailed    RefuelStatus = "failed"    // quote/hash/relay failure; next cycle re-evaluates
)

// ScanCycleRecord is the persisted audit row for one scan pass. Big integer
// amounts are stored as decimal strings; the contract remains the source of
// truth and these rows are never read back into the decision path.
type ScanCycleRecord struct {
	ID                 string    `json:"id" gorm:"primaryKey"` // UUID
	StartedAt          time.Time `json:"started_at" gorm:"index"`
	FinishedAt         time.Time `json:"finished_at"`
	TokensScanned      int       `json:"tokens_scanned"`
	PoliciesFound      int       `json:"policies_found"`
	PairsSkipped       int       `json:"pairs_skipped"`
	RefuelsTriggered   int       `json:"refuels_triggered"`
	RefuelsFailed      int       `json:"refuels_failed"`
	EstimatedFee       string    `json:"estimated_fee"`
	TotalFeesCollected string    `json:"total_fees_collected"`
	WithdrawableFees   string    `json:"withdrawable_fees"`
	CreatedAt          time.Time `json:"created_at"`
}

func (ScanCycleRecord) TableName() string {
	return "scan_cycles"
}

// RefuelRecord is the audit row for one trigger decision and its outcome.
type RefuelRecord struct {
	ID           string       `json:"id" gorm:"primaryKey"` // UUID
	CycleID      string       `json:"cycle_id" gorm:"index"`
	TokenID      string       `json:"token_id" gorm:"index:idx_refuel_pair"`
	ChainID      uint64       `json:"chain_id" gorm:"index:idx_refuel_pair"`
	Owner        string       `json:"owner" gorm:"size:42"`
	Agent        string       `json:"agent" gorm:"size:42"`
	GasAmount    string       `json:"gas_amount"`
	Threshold    string       `json:"threshold"`
	Balance      string       `json:"balance"`
	EstimatedFee string       `json:"estimated_fee"`
	Status       RefuelStatus `json:"status" gorm:"index"`
	TxHash       string       `json:"tx_hash" gorm:"size:66"`
	LastError    string       `json:"last_error" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (RefuelRecord) TableName() string {
	return "refuel_records"
}

// RelaySubmissionStatus tracks a forwarded meta-transaction.
type RelaySubmissionStatus string

const (
	RelaySubmissionConfirmed RelaySubmissionStatus = "confirmed"
	RelaySubmissionReverted  RelaySubmissionStatus = "reverted"
	RelaySubmissionFailed    RelaySubmissionStatus = "failed"
)

// RelaySubmission is the audit row for one meta-transaction forwarded by the
// relay, whether user-initiated or dispatcher-initiated.
type RelaySubmission struct {
	ID          string                `json:"id" gorm:"primaryKey"` // relay request ID (idempotency key)
	Kind        string                `json:"kind" gorm:"index"`
	Signer      string                `json:"signer" gorm:"size:42;index"`
	SignerNonce uint64                `json:"signer_nonce"`
	TxHash      string                `json:"tx_hash" gorm:"size:66"`
	Status      RelaySubmissionStatus `json:"status" gorm:"index"`
	TokenID     string                `json:"token_id"` // recovered from mint logs when present
	LastError   string                `json:"last_error" gorm:"type:text"`
	CreatedAt   time.Time             `json:"created_at"`
	ConfirmedAt *time.Time            `json:"confirmed_at"`
}

func (RelaySubmission) TableName() string {
	return "relay_submissions"
}
