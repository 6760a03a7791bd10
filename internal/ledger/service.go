// Package ledger owns every write that can move a customer's balance: record
// creation, payment edits, cancellation, cascade delete and reconciliation.
//
// A customer's balance always equals the sum of (total - paid) over its
// non-cancelled sales and its standalone trays. Each record write and the
// matching balance increment commit in one store transaction, and change
// events are published only after that commit.
package ledger

import (
	"context"
	"time"

	"mandi-backend/internal/audit"
	"mandi-backend/internal/config"
	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/store"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store  store.Store
	events realtime.Publisher
	audit  *audit.Recorder
	log    *logrus.Logger
	policy config.OverpaymentPolicy
	locker *redislock.Client
	now    func() time.Time
}

type Option func(*Service)

// WithLocker serializes reconciliation runs across instances.
func WithLocker(l *redislock.Client) Option {
	return func(s *Service) { s.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, events realtime.Publisher, log *logrus.Logger, policy config.OverpaymentPolicy, opts ...Option) *Service {
	if policy == "" {
		policy = config.OverpaymentReject
	}
	s := &Service{
		store:  st,
		events: events,
		audit:  audit.NewRecorder(log),
		log:    log,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(ctx context.Context, ownerID, table string, kind realtime.Kind, recordID string) {
	s.events.Publish(ctx, realtime.Event{
		Table:    table,
		Kind:     kind,
		OwnerID:  ownerID,
		RecordID: recordID,
		At:       s.now().UTC(),
	})
}

// refreshCustomers tells readers that cached customer balances are stale.
func (s *Service) refreshCustomers(ctx context.Context, ownerID string) {
	s.publish(ctx, ownerID, realtime.TableCustomers, realtime.KindRefresh, "")
}

// money and measure round to the precision of the amount and quantity columns,
// so a total computed here is the total the stored row multiplies out to.
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func measure(d decimal.Decimal) decimal.Decimal {
	return d.Round(3)
}

// settlePaid applies the over-payment policy to a requested paid amount.
func (s *Service) settlePaid(paid, total decimal.Decimal) (decimal.Decimal, error) {
	if paid.IsNegative() {
		return decimal.Zero, invalidf("paid_amount", "must not be negative")
	}
	if paid.LessThanOrEqual(total) {
		return paid, nil
	}
	switch s.policy {
	case config.OverpaymentClamp:
		return total, nil
	case config.OverpaymentAllow:
		return paid, nil
	default:
		return decimal.Zero, ErrOverpayment
	}
}

func saleStatus(paid, total decimal.Decimal) models.TransactionStatus {
	if paid.GreaterThanOrEqual(total) {
		return models.StatusCompleted
	}
	return models.StatusPending
}
