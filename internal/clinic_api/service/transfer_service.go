package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferServiceImpl implements TransferService
type TransferServiceImpl struct {
	transactor persistence.Transactor
	engine     LedgerEngine
	registry   AccountRegistry
	config     ConfigStore
	accounts   account.Repository
	ledgerRepo ledger.Repository
	users      clinic.UserRepository
	now        func() time.Time
	logger     *slog.Logger
}

// NewTransferService creates the wallet transfer service
func NewTransferService(
	logger *slog.Logger,
	transactor persistence.Transactor,
	engine LedgerEngine,
	registry AccountRegistry,
	config ConfigStore,
	accounts account.Repository,
	ledgerRepo ledger.Repository,
	users clinic.UserRepository,
) TransferService {
	return &TransferServiceImpl{
		transactor: transactor,
		engine:     engine,
		registry:   registry,
		config:     config,
		accounts:   accounts,
		ledgerRepo: ledgerRepo,
		users:      users,
		now:        time.Now,
		logger:     logger.With("component", "transfer_service"),
	}
}

// Transfer moves wallet credit from one user to the user owning ToPhone.
// Limits and the sender's balance are checked under the wallet row locks.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: transfer amount must be positive", shared.ErrInvalidRequest)
	}

	minimum, err := s.config.GetMinorUnits(ctx, settings.MinTransferAmount)
	if err != nil {
		return nil, err
	}
	dailyLimit, err := s.config.GetMinorUnits(ctx, settings.DailyTransferLimit)
	if err != nil {
		return nil, err
	}
	if req.Amount < minimum {
		return nil, clinic.ErrBelowMinimum{Amount: req.Amount, Minimum: minimum}
	}
	if req.Amount > dailyLimit {
		return nil, clinic.ErrDailyLimit{Amount: req.Amount, Limit: dailyLimit}
	}

	var result *TransferResult
	err = s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		usersTx := s.users.WithTx(tx)

		sender, err := usersTx.GetByID(ctx, req.FromUserID)
		if err != nil {
			return err
		}
		receiver, err := usersTx.GetByPhone(ctx, req.ToPhone)
		if err != nil {
			return err
		}
		if receiver.ID == sender.ID {
			return clinic.ErrSelfTransfer
		}

		senderWallet, err := s.registry.WalletInTx(ctx, tx, sender)
		if err != nil {
			return err
		}
		receiverWallet, err := s.registry.WalletInTx(ctx, tx, receiver)
		if err != nil {
			return err
		}

		accountsTx := s.accounts.WithTx(tx)
		locked, err := accountsTx.LockForUpdate(ctx, []uuid.UUID{senderWallet.ID, receiverWallet.ID})
		if err != nil {
			return err
		}

		sentToday, err := s.ledgerRepo.WithTx(tx).SumSince(ctx, senderWallet.ID, ledger.SideDebit, ledger.ReferenceTransfer, startOfDay(s.now()))
		if err != nil {
			return err
		}
		if total, ok := shared.AddMinor(sentToday, req.Amount); !ok || total > dailyLimit {
			return clinic.ErrDailyLimit{Amount: req.Amount, SentToday: sentToday, Limit: dailyLimit}
		}

		balance := locked[senderWallet.ID].Balance
		if balance < req.Amount {
			return account.ErrInsufficientBalance{AccountID: senderWallet.ID, Balance: balance, Requested: req.Amount}
		}

		txn, err := s.engine.PostInTx(ctx, tx, PostRequest{
			Description:   fmt.Sprintf("Transfer from %s to %s", sender.Name, receiver.Name),
			ReferenceKind: ledger.ReferenceTransfer,
			Legs: []ledger.Leg{
				ledger.Debit(senderWallet.ID, req.Amount),
				ledger.Credit(receiverWallet.ID, req.Amount),
			},
		})
		if err != nil {
			return err
		}

		after, err := accountsTx.GetByID(ctx, senderWallet.ID)
		if err != nil {
			return err
		}
		result = &TransferResult{
			TransactionID: txn.ID,
			Amount:        req.Amount,
			SenderBalance: after.Balance,
			ReceiverName:  receiver.Name,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Transfer rejected",
			"from_user_id", req.FromUserID.String(),
			"amount", req.Amount,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Transfer completed",
		"transaction_id", result.TransactionID.String(),
		"from_user_id", req.FromUserID.String(),
		"amount", req.Amount,
	)
	return result, nil
}

// startOfDay is midnight UTC of the day t falls on
func startOfDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
