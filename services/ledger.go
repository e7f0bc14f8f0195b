package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"food-marketplace-api/events"
	"food-marketplace-api/logger"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const cashOnDeliveryResponse = "Payment is cash on delivery"

// LedgerService records payment intents and their status
type LedgerService struct {
	base
	clampAtZero bool
}

func NewLedgerService(d Deps, clampAtZero bool) *LedgerService {
	return &LedgerService{base: newBase(d), clampAtZero: clampAtZero}
}

type OpenTransactionInput struct {
	CustomerID  uint
	Amount      decimal.Decimal
	PaymentMode string
	OfferID     *uint
}

// OpenTransaction creates an OPEN transaction. An active offer reduces the
// payable amount by its offer amount; a missing or inactive one is ignored.
func (s *LedgerService) OpenTransaction(ctx context.Context, in OpenTransactionInput) (*models.Transaction, error) {
	const op = "ledger.OpenTransaction"

	if in.Amount.IsNegative() {
		return nil, invalid(op, "Amount must not be negative")
	}
	db := s.db.WithContext(ctx)
	if err := ensureCustomer(db, op, in.CustomerID); err != nil {
		return nil, err
	}

	payable := in.Amount
	offerUsed := "NA"
	if in.OfferID != nil {
		var offer models.Offer
		err := db.First(&offer, *in.OfferID).Error
		switch {
		case err == nil && offer.IsActive:
			payable = payable.Sub(offer.OfferAmount)
			offerUsed = strconv.FormatUint(uint64(offer.ID), 10)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if s.clampAtZero && payable.IsNegative() {
		payable = decimal.Zero
	}

	txn := &models.Transaction{
		CustomerID:      in.CustomerID,
		OrderValue:      payable,
		OfferUsed:       offerUsed,
		Status:          models.TxnOpen,
		PaymentMode:     in.PaymentMode,
		PaymentResponse: cashOnDeliveryResponse,
	}
	if err := db.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("transaction_opened", logger.RequestID(ctx), "transaction opened",
		slog.Uint64("transaction_id", uint64(txn.ID)),
		slog.Uint64("customer_id", uint64(txn.CustomerID)),
		slog.String("amount", txn.OrderValue.StringFixed(2)))
	s.publish(ctx, events.TransactionOpened, txn)
	return txn, nil
}

// ValidateTransaction is false only when the transaction is missing or FAILED.
// Store errors other than not-found are returned.
func (s *LedgerService) ValidateTransaction(ctx context.Context, id uint) (bool, *models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("ledger.ValidateTransaction: %w", err)
	}
	if statemachine.IsFailed(txn.Status) {
		return false, &txn, nil
	}
	return true, &txn, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		return nil, lookupErr("ledger.GetTransaction", "Transaction not found", err)
	}
	return &txn, nil
}

// ListTransactions returns every transaction, newest first, optionally
// filtered by status
func (s *LedgerService) ListTransactions(ctx context.Context, status string) ([]models.Transaction, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		query = query.Where("UPPER(status) = ?", statemachine.Normalize(models.TransactionStatus(status)))
	}
	txns := []models.Transaction{}
	if err := query.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("ledger.ListTransactions: %w", err)
	}
	return txns, nil
}

// ChangeStatus moves a transaction through the ledger state machine.
// Confirmation is reserved for order creation.
func (s *LedgerService) ChangeStatus(ctx context.Context, id uint, to models.TransactionStatus, actor string) (*models.Transaction, error) {
	const op = "ledger.ChangeStatus"

	unlock, err := s.locks.Lock(ctx, transactionKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var txn models.Transaction
	if err := db.First(&txn, id).Error; err != nil {
		return nil, lookupErr(op, "Transaction not found", err)
	}
	to = statemachine.Normalize(to)
	if err := statemachine.CanTransition(txn.Status, to, actor); err != nil {
		return nil, &Error{Kind: KindInvalid, Op: op, Msg: err.Error()}
	}
	if txn.OrderID != nil {
		return nil, conflict(op, "Transaction already backs an order")
	}
	from := txn.Status
	if err := db.Model(&txn).Update("status", to).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	txn.Status = to

	s.log.Info("transaction_status_changed", logger.RequestID(ctx), "transaction status changed",
		slog.Uint64("transaction_id", uint64(txn.ID)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("actor", actor))
	return &txn, nil
}
