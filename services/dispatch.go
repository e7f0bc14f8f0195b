package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"food-marketplace-api/events"
	"food-marketplace-api/logger"
	"food-marketplace-api/models"

	"gorm.io/gorm"
)

type DispatchStatus string

const (
	DispatchAssigned    DispatchStatus = "ASSIGNED"
	DispatchUnavailable DispatchStatus = "UNAVAILABLE"
	DispatchFailed      DispatchStatus = "FAILED"
)

// DispatchOutcome is the result of one courier assignment attempt. Only
// ASSIGNED carries a courier id.
type DispatchOutcome struct {
	OrderID   uint           `json:"order_id"`
	Status    DispatchStatus `json:"status"`
	CourierID *uint          `json:"courier_id,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Err       error          `json:"-"`
}

func (o DispatchOutcome) Assigned() bool { return o.Status == DispatchAssigned }

// Dispatcher matches orders to couriers serving the vendor's pincode
type Dispatcher struct {
	base
	ranker      CourierRanker
	maxAttempts int
}

func NewDispatcher(d Deps, ranker CourierRanker, maxAttempts int) *Dispatcher {
	if ranker == nil {
		ranker = NearestRanker{}
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Dispatcher{base: newBase(d), ranker: ranker, maxAttempts: maxAttempts}
}

// AssignCourier tries to attach a courier to the order. It never returns an
// error; anything short of ASSIGNED is recorded as a pending assignment.
func (d *Dispatcher) AssignCourier(ctx context.Context, orderID, vendorID uint) DispatchOutcome {
	reqID := logger.RequestID(ctx)
	outcome := d.assign(ctx, orderID, vendorID)

	if outcome.Assigned() {
		if err := d.resolvePending(ctx, orderID); err != nil {
			d.log.Error("dispatch_resolve_failed", reqID, "failed to resolve pending assignment", err,
				slog.Uint64("order_id", uint64(orderID)))
		}
		d.log.Info("dispatch_assigned", reqID, "courier assigned",
			slog.Uint64("order_id", uint64(orderID)),
			slog.Uint64("courier_id", uint64(*outcome.CourierID)))
		d.publish(ctx, events.DispatchAssigned, outcome)
		return outcome
	}

	d.log.Warn("dispatch_pending", reqID, "order left without courier",
		slog.Uint64("order_id", uint64(orderID)),
		slog.String("status", string(outcome.Status)),
		slog.String("reason", outcome.Reason))
	wctx, cancel := d.detached(ctx)
	defer cancel()
	if err := d.recordPending(wctx, orderID, vendorID, outcome); err != nil {
		d.log.Error("dispatch_record_failed", reqID, "failed to record pending assignment", err,
			slog.Uint64("order_id", uint64(orderID)))
	}
	d.publish(wctx, events.DispatchPending, outcome)
	return outcome
}

func (d *Dispatcher) assign(ctx context.Context, orderID, vendorID uint) DispatchOutcome {
	outcome := DispatchOutcome{OrderID: orderID}
	fail := func(reason string, err error) DispatchOutcome {
		outcome.Status = DispatchFailed
		outcome.Reason = reason
		outcome.Err = err
		return outcome
	}

	unlock, err := d.locks.Lock(ctx, orderKey(orderID))
	if err != nil {
		return fail("order is busy", err)
	}
	defer unlock()

	db := d.db.WithContext(ctx)
	var vendor models.Vendor
	if err := db.First(&vendor, vendorID).Error; err != nil {
		return fail("vendor lookup failed", lookupErr("dispatch.AssignCourier", "Vendor not found", err))
	}

	var couriers []models.DeliveryUser
	err = db.Where("pincode = ? AND verified = ? AND is_available = ?", vendor.Pincode, true, true).
		Order("id").Find(&couriers).Error
	if err != nil {
		return fail("courier lookup failed", err)
	}
	if len(couriers) == 0 {
		outcome.Status = DispatchUnavailable
		outcome.Reason = fmt.Sprintf("no verified available courier in pincode %s", vendor.Pincode)
		return outcome
	}

	chosen := d.ranker.Rank(&vendor, couriers)[0]
	res := db.Model(&models.Order{}).Where("id = ?", orderID).Update("delivery_id", chosen.ID)
	if res.Error != nil {
		return fail("order update failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return fail("order not found", notFound("dispatch.AssignCourier", "Order not found"))
	}

	outcome.Status = DispatchAssigned
	outcome.CourierID = &chosen.ID
	return outcome
}

func (d *Dispatcher) recordPending(ctx context.Context, orderID, vendorID uint, outcome DispatchOutcome) error {
	lastErr := ""
	if outcome.Err != nil {
		lastErr = outcome.Err.Error()
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending models.PendingAssignment
		err := tx.Where("order_id = ?", orderID).First(&pending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.PendingAssignment{
				OrderID:   orderID,
				VendorID:  vendorID,
				Reason:    outcome.Reason,
				Attempts:  1,
				LastError: lastErr,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&pending).Updates(map[string]any{
			"attempts":   pending.Attempts + 1,
			"reason":     outcome.Reason,
			"last_error": lastErr,
			"resolved":   false,
		}).Error
	})
}

func (d *Dispatcher) resolvePending(ctx context.Context, orderID uint) error {
	return d.db.WithContext(ctx).Model(&models.PendingAssignment{}).
		Where("order_id = ? AND resolved = ?", orderID, false).
		Update("resolved", true).Error
}

// ListPending returns unresolved assignments, oldest first
func (d *Dispatcher) ListPending(ctx context.Context) ([]models.PendingAssignment, error) {
	pending := []models.PendingAssignment{}
	if err := d.db.WithContext(ctx).Where("resolved = ?", false).Order("id").Find(&pending).Error; err != nil {
		return nil, fmt.Errorf("dispatch.ListPending: %w", err)
	}
	return pending, nil
}

// RetryPending re-runs every unresolved assignment below the attempt limit
// and returns how many got a courier
func (d *Dispatcher) RetryPending(ctx context.Context) (int, error) {
	var pending []models.PendingAssignment
	err := d.db.WithContext(ctx).
		Where("resolved = ? AND attempts < ?", false, d.maxAttempts).
		Order("id").Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("dispatch.RetryPending: %w", err)
	}

	assigned := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return assigned, err
		}
		var order models.Order
		if err := d.db.WithContext(ctx).Select("id", "delivery_id").First(&order, p.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := d.resolvePending(ctx, p.OrderID); err != nil {
					return assigned, fmt.Errorf("dispatch.RetryPending: %w", err)
				}
				continue
			}
			return assigned, fmt.Errorf("dispatch.RetryPending: %w", err)
		}
		if order.DeliveryID != nil {
			if err := d.resolvePending(ctx, p.OrderID); err != nil {
				return assigned, fmt.Errorf("dispatch.RetryPending: %w", err)
			}
			continue
		}
		if d.AssignCourier(ctx, p.OrderID, p.VendorID).Assigned() {
			assigned++
		}
	}
	return assigned, nil
}

// retryOnce is one worker tick, bounded by the store timeout
func (d *Dispatcher) retryOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()
	return d.RetryPending(ctx)
}

// Run retries pending assignments every interval until ctx is done
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("dispatch retry interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.log.Info("dispatch_worker_started", "", "dispatch retry worker started",
		slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatch_worker_stopped", "", "dispatch retry worker stopped")
			return nil
		case <-ticker.C:
			n, err := d.retryOnce(ctx)
			if err != nil && ctx.Err() == nil {
				d.log.Error("dispatch_retry_failed", "", "pending assignment retry failed", err)
				continue
			}
			if n > 0 {
				d.log.Info("dispatch_retry", "", "pending orders assigned", slog.Int("assigned", n))
			}
		}
	}
}
