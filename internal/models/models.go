package models

import (
	"time"
)

// Wallet is a stored key set derived from a mnemonic. Signing key blobs
// are encrypted at rest by the repository and are opaque to everyone but
// the node client at signing time. Rows are never mutated after creation.
type Wallet struct {
	ID                  string    `gorm:"size:36;primaryKey" json:"id"`
	Name                string    `gorm:"type:text;not null" json:"name"`
	BaseAddr            string    `gorm:"type:text;not null" json:"baseAddr"`
	PaymentAddr         string    `gorm:"type:text;not null" json:"paymentAddr"`
	PaymentSkey         []byte    `gorm:"type:blob" json:"-"`
	PaymentVkey         []byte    `gorm:"type:blob" json:"paymentVkey"`
	StakeAddr           string    `gorm:"type:text" json:"stakeAddr"`
	StakeSkey           []byte    `gorm:"type:blob" json:"-"`
	StakeVkey           []byte    `gorm:"type:blob" json:"stakeVkey"`
	HashVerificationKey string    `gorm:"type:text" json:"hashVerificationKey"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (Wallet) TableName() string { return "wallet" }

// Transaction records one built (and possibly signed and submitted)
// transaction. TxID is the ledger-assigned identifier and the natural
// key; the unique index is what makes the insert-if-absent atomic.
type Transaction struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	TxID          string    `gorm:"size:128;uniqueIndex;not null" json:"txId"`
	IDWallet      *string   `gorm:"size:36;index" json:"idWallet,omitempty"`
	AddressOrigin string    `gorm:"type:text" json:"addressOrigin"`
	AddressDestin []byte    `gorm:"type:blob" json:"addressDestin"` // JSON destination list
	TxCborHex     []byte    `gorm:"type:blob" json:"txCborHex"`     // draft or signed envelope
	Metadata      []byte    `gorm:"type:blob" json:"metadata,omitempty"`
	Fees          int64     `json:"fees"`
	Network       string    `gorm:"size:32" json:"network"`
	Processed     bool      `json:"processed"` // signed and submitted successfully
	Submission    time.Time `json:"submission"`
}

func (Transaction) TableName() string { return "transactions" }

// Script stores a native script document together with the policy id
// derived from it and the declarative parameters it was built from.
// The policy id must always re-derive from Content; a mismatch on later
// use aborts the dependent workflow.
type Script struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	Name      string    `gorm:"type:text" json:"name"`
	Purpose   string    `gorm:"size:16" json:"purpose"`
	Content   []byte    `gorm:"type:blob" json:"content"`
	PolicyID  string    `gorm:"size:64;index" json:"policyId"`
	Type      string    `gorm:"size:16" json:"type,omitempty"`
	Required  int       `json:"required,omitempty"`
	Hashes    []byte    `gorm:"type:blob" json:"hashes,omitempty"` // JSON key-hash list
	TypeTime  string    `gorm:"size:16" json:"typeTime,omitempty"`
	Slot      uint64    `json:"slot,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Script) TableName() string { return "scripts" }

// User is an authentication lookup record. Token issuance happens at
// the web layer; the core only stores the credential material.
type User struct {
	ID             string    `gorm:"size:36;primaryKey" json:"id"`
	IDWallet       *string   `gorm:"size:36" json:"idWallet,omitempty"`
	Username       string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	HashedPassword string    `gorm:"type:text" json:"-"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
