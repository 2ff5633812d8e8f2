package clinic

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCompany       = errors.New("company name cannot be empty")
	ErrInvalidPartnerType = errors.New("invalid partner type")
	ErrInvalidCommission  = errors.New("commission rate must be between 0 and 100")
)

// PartnerType is the kind of business that refers patients
type PartnerType string

const (
	PartnerHotel       PartnerType = "HOTEL"
	PartnerRestaurant  PartnerType = "RESTAURANT"
	PartnerCorporation PartnerType = "CORPORATION"
)

// Valid reports whether t is a known partner type.
func (t PartnerType) Valid() bool {
	switch t {
	case PartnerHotel, PartnerRestaurant, PartnerCorporation:
		return true
	}
	return false
}

const PartnerActive = "ACTIVE"

// Partner is the business profile behind a PARTNER user. CommissionRate is a
// percentage of the cash-settled part of a referred patient's checkout; zero
// defers to the configured default.
type Partner struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	CompanyName    string          `json:"company_name"`
	Type           PartnerType     `json:"type"`
	City           string          `json:"city"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	UniqueCode     string          `json:"unique_code"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewPartner validates a partner profile for userID. Codes are upper-cased;
// an empty code gets a generated one.
func NewPartner(userID uuid.UUID, companyName string, partnerType PartnerType, city, code string, rate decimal.Decimal) (*Partner, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, ErrEmptyCompany
	}
	if !partnerType.Valid() {
		return nil, ErrInvalidPartnerType
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidCommission
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = NewReferralCode()
	}
	return &Partner{
		ID:             uuid.New(),
		UserID:         userID,
		CompanyName:    companyName,
		Type:           partnerType,
		City:           strings.TrimSpace(city),
		CommissionRate: rate,
		UniqueCode:     code,
		Status:         PartnerActive,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
