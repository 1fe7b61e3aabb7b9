package models

import "time"

type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`                  // User ID
	PhoneNumber  string    `json:"phoneNumber" db:"phone_number" example:"0821234567"` // Login phone number
	PasswordHash string    `json:"-" db:"password_hash"`
	WalletCents  int64     `json:"walletCents" db:"wallet_cents" example:"2500"` // Wallet balance in cents
	Version      int       `json:"-" db:"version"`                               // for optimistic locking
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
