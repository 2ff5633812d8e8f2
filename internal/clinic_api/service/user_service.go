package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserServiceImpl implements UserService
type UserServiceImpl struct {
	transactor persistence.Transactor
	registry   AccountRegistry
	engine     LedgerEngine
	users      clinic.UserRepository
	partners   clinic.PartnerRepository
	logger     *slog.Logger

	// historyLimit caps the entries a wallet view carries
	historyLimit int
}

// NewUserService creates the user service
func NewUserService(
	logger *slog.Logger,
	transactor persistence.Transactor,
	registry AccountRegistry,
	engine LedgerEngine,
	users clinic.UserRepository,
	partners clinic.PartnerRepository,
	historyLimit int,
) UserService {
	return &UserServiceImpl{
		transactor: transactor,
		registry:   registry,
		engine:     engine,
		users:      users,
		partners:   partners,
		logger:     logger.With("component", "user_service"),

		historyLimit: historyLimit,
	}
}

// CreateUser registers a user together with their wallet. A phone that is
// already registered returns the existing user with Created false.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResult, error) {
	user, err := clinic.NewUser(req.Phone, req.Role, req.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, err)
	}

	if existing, err := s.existing(ctx, user.Phone); err != nil || existing != nil {
		return existing, err
	}

	upline, err := s.resolveUpline(ctx, req)
	if err != nil {
		return nil, err
	}
	user.UplineID = upline

	var wallet *account.Account
	err = s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		wallet, err = s.registry.CreateWallet(ctx, tx, user)
		return err
	})
	if errors.Is(err, clinic.ErrDuplicatePhone{}) {
		// Lost a race with a concurrent registration of the same phone.
		return s.existing(ctx, user.Phone)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		"user_id", user.ID.String(),
		"role", string(user.Role),
		"has_upline", upline != nil,
	)
	return &CreateUserResult{User: user, Wallet: wallet, Created: true}, nil
}

// existing returns the registered user for phone, or nil when there is none
func (s *UserServiceImpl) existing(ctx context.Context, phone string) (*CreateUserResult, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, clinic.ErrUserNotFound{}) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	wallet, err := s.registry.GetOrCreateWallet(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &CreateUserResult{User: user, Wallet: wallet}, nil
}

// resolveUpline turns a partner code or an upline id into the referrer's user id.
func (s *UserServiceImpl) resolveUpline(ctx context.Context, req CreateUserRequest) (*uuid.UUID, error) {
	if req.PartnerCode != "" {
		partner, err := s.partners.GetByCode(ctx, req.PartnerCode)
		if err != nil {
			return nil, err
		}
		return &partner.UserID, nil
	}
	if req.UplineID == nil {
		return nil, nil
	}
	upline, err := s.users.GetByID(ctx, *req.UplineID)
	if err != nil {
		return nil, err
	}
	return &upline.ID, nil
}

// GetWallet returns the user's wallet with its newest entries materialized.
// HistoryTruncated is set when older entries were left out.
func (s *UserServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*WalletView, error) {
	wallet, err := s.registry.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &WalletView{Account: wallet, History: []ledger.HistoryItem{}}
	for item, err := range s.engine.GetHistory(ctx, wallet.ID) {
		if err != nil {
			return nil, fmt.Errorf("failed to read wallet history: %w", err)
		}
		if s.historyLimit > 0 && len(view.History) == s.historyLimit {
			view.HistoryTruncated = true
			break
		}
		view.History = append(view.History, item)
	}
	return view, nil
}

// CreatePartner attaches a partner profile to a PARTNER user and makes sure
// the user has a wallet for commissions to land in.
func (s *UserServiceImpl) CreatePartner(ctx context.Context, req CreatePartnerRequest) (*clinic.Partner, error) {
	partner, err := clinic.NewPartner(req.UserID, req.CompanyName, req.Type, req.City, req.UniqueCode, req.CommissionRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidRequest, err)
	}

	err = s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		user, err := s.users.WithTx(tx).GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user.Role != clinic.RolePartner {
			return fmt.Errorf("%w: user %s has role %s, not %s", shared.ErrInvalidRequest, user.ID, user.Role, clinic.RolePartner)
		}
		if _, err := s.registry.WalletInTx(ctx, tx, user); err != nil {
			return err
		}
		return s.partners.WithTx(tx).Create(ctx, partner)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Partner created",
		"partner_id", partner.ID.String(),
		"user_id", partner.UserID.String(),
		"code", partner.UniqueCode,
	)
	return partner, nil
}

func (s *UserServiceImpl) ListPartners(ctx context.Context) ([]*clinic.Partner, error) {
	return s.partners.List(ctx)
}
