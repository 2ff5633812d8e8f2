// Package clinic holds the clinic records that surround the ledger: users,
// partners, the service catalog, appointments and invoices.
package clinic

import (
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyPhone   = errors.New("phone cannot be empty")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidRole  = errors.New("invalid role")
	ErrSelfReferral = errors.New("user cannot be their own upline")
)

// Role of a user on the platform
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePartner Role = "PARTNER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleAdmin, RoleDoctor, RolePartner:
		return true
	}
	return false
}

// User is anyone who can hold a wallet.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Phone        string     `json:"phone"`
	Role         Role       `json:"role"`
	Name         string     `json:"name"`
	ReferralCode string     `json:"referral_code"`
	UplineID     *uuid.UUID `json:"upline_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewUser validates input and assigns an id and a referral code.
func NewUser(phone string, role Role, name string, uplineID *uuid.UUID) (*User, error) {
	phone = strings.TrimSpace(phone)
	name = strings.TrimSpace(name)
	if phone == "" {
		return nil, ErrEmptyPhone
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if role == "" {
		role = RolePatient
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return &User{
		ID:           uuid.New(),
		Phone:        phone,
		Role:         role,
		Name:         name,
		ReferralCode: NewReferralCode(),
		UplineID:     uplineID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferralCode returns a random 6 character code without look-alike characters.
func NewReferralCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(buf)
}
