package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CheckoutServiceImpl implements CheckoutService
type CheckoutServiceImpl struct {
	transactor   persistence.Transactor
	engine       LedgerEngine
	registry     AccountRegistry
	config       ConfigStore
	accounts     account.Repository
	users        clinic.UserRepository
	partners     clinic.PartnerRepository
	services     clinic.ServiceRepository
	appointments clinic.AppointmentRepository
	invoices     clinic.InvoiceRepository
	logger       *slog.Logger
}

// CheckoutDeps groups the repositories checkout reads and writes
type CheckoutDeps struct {
	Accounts     account.Repository
	Users        clinic.UserRepository
	Partners     clinic.PartnerRepository
	Services     clinic.ServiceRepository
	Appointments clinic.AppointmentRepository
	Invoices     clinic.InvoiceRepository
}

// NewCheckoutService creates the checkout orchestrator
func NewCheckoutService(
	logger *slog.Logger,
	transactor persistence.Transactor,
	engine LedgerEngine,
	registry AccountRegistry,
	config ConfigStore,
	deps CheckoutDeps,
) CheckoutService {
	return &CheckoutServiceImpl{
		transactor:   transactor,
		engine:       engine,
		registry:     registry,
		config:       config,
		accounts:     deps.Accounts,
		users:        deps.Users,
		partners:     deps.Partners,
		services:     deps.Services,
		appointments: deps.Appointments,
		invoices:     deps.Invoices,
		logger:       logger.With("component", "checkout_service"),
	}
}

// checkoutAccounts are the accounts a checkout may touch. Partner is nil
// when no commission is due to anyone.
type checkoutAccounts struct {
	wallet    *account.Account
	cash      *account.Account
	revenue   *account.Account
	marketing *account.Account
	affiliate *account.Account
	partner   *account.Account
}

func (a checkoutAccounts) ids() []uuid.UUID {
	ids := []uuid.UUID{a.wallet.ID, a.cash.ID, a.revenue.ID, a.marketing.ID, a.affiliate.ID}
	if a.partner != nil {
		ids = append(ids, a.partner.ID)
	}
	return ids
}

// Checkout settles a CONFIRMED appointment in one unit of work: wallet
// redemption, cash settlement, loyalty accrual and partner commission are
// posted as a single transaction.
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.WalletAmountRequested < 0 {
		return nil, fmt.Errorf("%w: wallet amount cannot be negative", shared.ErrInvalidRequest)
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidRequest, req.PaymentMethod)
	}

	var result *CheckoutResult
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.checkout(ctx, tx, req)
		return err
	})
	if err != nil {
		s.logger.Warn("Checkout failed",
			"appointment_id", req.AppointmentID.String(),
			"patient_id", req.PatientID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Checkout completed",
		"appointment_id", req.AppointmentID.String(),
		"invoice_id", result.InvoiceID.String(),
		"price", result.Price,
		"wallet_used", result.WalletUsed,
		"loyalty_accrued", result.LoyaltyAccrued,
		"commission", result.Commission,
	)
	return result, nil
}

func (s *CheckoutServiceImpl) checkout(ctx context.Context, tx pgx.Tx, req CheckoutRequest) (*CheckoutResult, error) {
	appointmentsTx := s.appointments.WithTx(tx)

	appt, err := appointmentsTx.LockForUpdate(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != req.PatientID {
		return nil, clinic.ErrAppointmentNotFound{AppointmentID: req.AppointmentID}
	}
	if appt.Status != clinic.AppointmentConfirmed {
		return nil, clinic.ErrInvalidAppointmentState{AppointmentID: appt.ID, From: appt.Status, To: clinic.AppointmentCompleted}
	}

	svc, err := s.services.WithTx(tx).GetByID(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}
	patient, err := s.users.WithTx(tx).GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	accts, commissionRate, err := s.resolveAccounts(ctx, tx, patient, svc)
	if err != nil {
		return nil, err
	}
	loyaltyRate, err := s.loyaltyRate(ctx, svc)
	if err != nil {
		return nil, err
	}

	accountsTx := s.accounts.WithTx(tx)
	locked, err := accountsTx.LockForUpdate(ctx, accts.ids())
	if err != nil {
		return nil, err
	}

	price := svc.Price
	walletUsed := max(min(req.WalletAmountRequested, locked[accts.wallet.ID].Balance, price), 0)
	remaining := price - walletUsed
	loyalty := shared.Percent(remaining, loyaltyRate)
	commission := int64(0)
	if accts.partner != nil {
		commission = shared.Percent(remaining, commissionRate)
	}

	var legs []ledger.Leg
	if walletUsed > 0 {
		legs = append(legs, ledger.Debit(accts.wallet.ID, walletUsed), ledger.Credit(accts.revenue.ID, walletUsed))
	}
	if remaining > 0 {
		legs = append(legs, ledger.Debit(accts.cash.ID, remaining), ledger.Credit(accts.revenue.ID, remaining))
	}
	if loyalty > 0 {
		legs = append(legs, ledger.Debit(accts.marketing.ID, loyalty), ledger.Credit(accts.wallet.ID, loyalty))
	}
	if commission > 0 {
		legs = append(legs, ledger.Debit(accts.affiliate.ID, commission), ledger.Credit(accts.partner.ID, commission))
	}

	var transactionID *uuid.UUID
	if len(legs) > 0 {
		txn, err := s.engine.PostInTx(ctx, tx, PostRequest{
			Description:   fmt.Sprintf("Checkout: %s", svc.Name),
			ReferenceKind: ledger.ReferenceInvoice,
			ReferenceID:   &appt.ID,
			Legs:          legs,
		})
		if err != nil {
			return nil, err
		}
		transactionID = &txn.ID
	}

	if err := appt.TransitionTo(clinic.AppointmentCompleted); err != nil {
		return nil, err
	}
	if err := appointmentsTx.UpdateStatus(ctx, appt.ID, appt.Status); err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = clinic.PaymentCash
		if remaining == 0 {
			method = clinic.PaymentWallet
		}
	}
	invoice := clinic.NewInvoice(req.PatientID, appt.ID, price, walletUsed, method, transactionID)
	if err := s.invoices.WithTx(tx).Create(ctx, invoice); err != nil {
		return nil, err
	}

	wallet, err := accountsTx.GetByID(ctx, accts.wallet.ID)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		InvoiceID:      invoice.ID,
		TransactionID:  transactionID,
		Price:          price,
		WalletUsed:     walletUsed,
		Remaining:      remaining,
		LoyaltyAccrued: loyalty,
		LoyaltyRate:    loyaltyRate,
		Commission:     commission,
		CommissionRate: commissionRate,
		WalletBalance:  wallet.Balance,
	}
	if accts.partner != nil {
		result.PartnerWalletID = &accts.partner.ID
	}
	return result, nil
}

// resolveAccounts looks up, without locking, every account the checkout may
// post to, plus the commission rate of the patient's upline.
func (s *CheckoutServiceImpl) resolveAccounts(ctx context.Context, tx pgx.Tx, patient *clinic.User, svc *clinic.Service) (checkoutAccounts, decimal.Decimal, error) {
	var accts checkoutAccounts

	wallet, err := s.registry.WalletInTx(ctx, tx, patient)
	if err != nil {
		return accts, decimal.Zero, err
	}
	accts.wallet = wallet

	accountsTx := s.accounts.WithTx(tx)
	for name, dst := range map[account.SystemName]**account.Account{
		account.SystemCashBank:         &accts.cash,
		account.SystemRevenue:          &accts.revenue,
		account.SystemMarketingExpense: &accts.marketing,
		account.SystemAffiliateExpense: &accts.affiliate,
	} {
		acc, err := accountsTx.GetBySystemName(ctx, name)
		if err != nil {
			s.logger.Error("System account missing, ledger not seeded", "system_name", string(name))
			return accts, decimal.Zero, err
		}
		*dst = acc
	}

	if !svc.CommissionEligible || patient.UplineID == nil {
		return accts, decimal.Zero, nil
	}
	partnerWallet, err := accountsTx.GetWalletByUserID(ctx, *patient.UplineID)
	if err != nil {
		if errors.Is(err, account.ErrWalletNotFound{}) {
			s.logger.Warn("Upline has no wallet, commission skipped", "upline_id", patient.UplineID.String())
			return accts, decimal.Zero, nil
		}
		return accts, decimal.Zero, err
	}
	accts.partner = partnerWallet

	rate, err := s.commissionRate(ctx, tx, *patient.UplineID)
	if err != nil {
		return accts, decimal.Zero, err
	}
	return accts, rate, nil
}

// commissionRate is the upline's own partner rate when positive, otherwise
// the configured default.
func (s *CheckoutServiceImpl) commissionRate(ctx context.Context, tx pgx.Tx, uplineID uuid.UUID) (decimal.Decimal, error) {
	partner, err := s.partners.WithTx(tx).GetByUserID(ctx, uplineID)
	if err != nil && !errors.Is(err, clinic.ErrPartnerNotFound{}) {
		return decimal.Zero, err
	}
	if err == nil && partner.CommissionRate.IsPositive() {
		return partner.CommissionRate, nil
	}
	return s.config.GetNumber(ctx, settings.PartnerCommissionRate)
}

func (s *CheckoutServiceImpl) loyaltyRate(ctx context.Context, svc *clinic.Service) (decimal.Decimal, error) {
	if !svc.LoyaltyEligible {
		return decimal.Zero, nil
	}
	if svc.LoyaltyRate.IsPositive() {
		return svc.LoyaltyRate, nil
	}
	return s.config.GetNumber(ctx, settings.LoyaltyRateDefault)
}
