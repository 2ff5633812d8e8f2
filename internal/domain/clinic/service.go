package clinic

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a catalog item a patient can book. Price is in minor units.
type Service struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Price              int64           `json:"price"`
	LoyaltyEligible    bool            `json:"loyalty_eligible"`
	LoyaltyRate        decimal.Decimal `json:"loyalty_rate"`
	CommissionEligible bool            `json:"commission_eligible"`
}

// DefaultCatalog is the catalog a fresh clinic starts with.
func DefaultCatalog() []Service {
	ten := decimal.NewFromInt(10)
	return []Service{
		{Name: "General Checkup", Category: "Diagnostic", Price: 5000, LoyaltyEligible: true, LoyaltyRate: ten, CommissionEligible: true},
		{Name: "Teeth Whitening", Category: "Cosmetic", Price: 20000, LoyaltyEligible: true, LoyaltyRate: ten, CommissionEligible: true},
		{Name: "Dental Implant", Category: "Surgery", Price: 150000, LoyaltyEligible: true, LoyaltyRate: ten, CommissionEligible: true},
		{Name: "Root Canal", Category: "Treatment", Price: 30000, LoyaltyEligible: true, LoyaltyRate: ten, CommissionEligible: true},
	}
}
