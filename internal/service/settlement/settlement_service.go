// internal/service/settlement/settlement_service.go
package settlement

import (
	"context"
	"fmt"
	"time"

	"gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"
	"gymflow-service/internal/pkg/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BillProvider resolves bill ids to materialized bills (live or stored).
type BillProvider interface {
	GetBillDetail(ctx context.Context, billID string) (*billing.MonthlyBill, error)
}

// PaymentLedger is the append side of the settlement ledger.
type PaymentLedger interface {
	Append(ctx context.Context, ev *payment.Event) error
	FindByExternalTxnID(ctx context.Context, gymID int64, month, year int, txnID string) (*payment.Event, error)
}

// Gateway is the payment gateway boundary: order creation and signature
// verification. Checkout runs on the gateway's side.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error)
	VerifySignature(conf payment.GatewayConfirmation) error
}

// Notifier pushes settlement notices to connected gym dashboards.
type Notifier interface {
	PublishSettlement(gymID int64, notice Notice)
}

// Notice is the realtime view of a recorded settlement.
type Notice struct {
	BillID    string             `json:"bill_id"`
	GymID     int64              `json:"gym_id"`
	Amount    float64            `json:"amount"`
	Method    string             `json:"method"`
	Status    billing.BillStatus `json:"status"`
	TotalPaid float64            `json:"total_paid"`
}

type locker interface {
	acquire(ctx context.Context, gymID int64, month, year int) (release func(), err error)
}

type orderBinder interface {
	save(ctx context.Context, orderID string, po pendingOrder) error
	get(ctx context.Context, orderID string) (*pendingOrder, error)
	delete(ctx context.Context, orderID string)
}

// Service is the payment settlement tracker. It records verified payments
// against bills, derives the bill status that follows, and guarantees that
// a fully paid bill never accepts another payment and that one gateway
// transaction is never counted twice.
type Service struct {
	bills    BillProvider
	ledger   PaymentLedger
	gateway  Gateway
	locks    locker
	orders   orderBinder
	notifier Notifier
	logger   *zap.Logger
	currency string
	now      func() time.Time
}

func NewService(bills BillProvider, ledger PaymentLedger, gw Gateway, rdb *redis.Client, notifier Notifier, currency string, logger *zap.Logger) *Service {
	return &Service{
		bills:    bills,
		ledger:   ledger,
		gateway:  gw,
		locks:    &billMutex{rdb: rdb},
		orders:   &orderStore{rdb: rdb},
		notifier: notifier,
		logger:   logger,
		currency: currency,
		now:      time.Now,
	}
}

// InitiatePayment creates a gateway order for a bill's outstanding amount
// and binds the order to the bill until the confirmation callback arrives.
func (s *Service) InitiatePayment(ctx context.Context, billID string) (*payment.GatewayOrder, error) {
	bill, err := s.bills.GetBillDetail(ctx, billID)
	if err != nil {
		return nil, err
	}

	if bill.FullyPaid() {
		return nil, fmt.Errorf("%w: bill %s", xerrors.ErrAlreadySettled, billID)
	}
	if bill.TotalPending <= 0 {
		return nil, fmt.Errorf("%w: bill %s has nothing to pay", xerrors.ErrInvalidInput, billID)
	}

	receipt := ulid.Make().String()
	order, err := s.gateway.CreateOrder(ctx, billing.Round2(bill.TotalPending), s.currency, receipt)
	if err != nil {
		return nil, err
	}

	if err := s.orders.save(ctx, order.OrderID, pendingOrder{
		BillID:    billID,
		GymID:     bill.GymID,
		BillMonth: bill.BillMonth,
		BillYear:  bill.BillYear,
		Amount:    order.Amount,
		Currency:  order.Currency,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("gateway order created",
		zap.String("bill_id", billID),
		zap.Int64("gym_id", bill.GymID),
		zap.String("order_id", order.OrderID),
		zap.Float64("amount", order.Amount))

	return order, nil
}

// ConfirmPayment settles a bill from a gateway confirmation callback. The
// signature is verified first; only then does the tracker record anything.
func (s *Service) ConfirmPayment(ctx context.Context, billID string, conf payment.GatewayConfirmation, processedBy int64) (*payment.Event, error) {
	if err := s.gateway.VerifySignature(conf); err != nil {
		s.logger.Warn("rejected gateway confirmation",
			zap.String("bill_id", billID),
			zap.String("order_id", conf.OrderID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInvalidInput, err)
	}

	po, err := s.orders.get(ctx, conf.OrderID)
	if err != nil {
		return nil, err
	}
	if po.BillID != billID {
		return nil, fmt.Errorf("%w: order %s does not belong to bill %s", xerrors.ErrInvalidInput, conf.OrderID, billID)
	}

	ev, err := s.RecordPayment(ctx, billID, payment.RecordPaymentInput{
		Amount:        po.Amount,
		Method:        payment.MethodGateway,
		ExternalTxnID: &conf.PaymentID,
		Description:   fmt.Sprintf("gateway order %s", conf.OrderID),
	}, processedBy)
	if err != nil {
		return nil, err
	}

	s.orders.delete(ctx, conf.OrderID)
	return ev, nil
}

// RecordPayment appends one settlement event against a bill and re-derives
// the bill's status. The operation is serialized per bill; a repeat of the
// same external transaction id returns the already-recorded event.
func (s *Service) RecordPayment(ctx context.Context, billID string, input payment.RecordPaymentInput, processedBy int64) (*payment.Event, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", xerrors.ErrInvalidInput)
	}

	// Resolve the bill once to learn its (gym, month, year) key, then take
	// the per-bill lock and re-read so the settled check is race-free.
	bill, err := s.bills.GetBillDetail(ctx, billID)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.acquire(ctx, bill.GymID, bill.BillMonth, bill.BillYear)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, err = s.bills.GetBillDetail(ctx, billID)
	if err != nil {
		return nil, err
	}

	if input.ExternalTxnID != nil {
		existing, err := s.ledger.FindByExternalTxnID(ctx, bill.GymID, bill.BillMonth, bill.BillYear, *input.ExternalTxnID)
		if err == nil {
			s.logger.Info("duplicate external transaction, returning recorded event",
				zap.String("bill_id", billID),
				zap.String("external_txn_id", *input.ExternalTxnID))
			return existing, nil
		}
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
	}

	if bill.FullyPaid() {
		return nil, fmt.Errorf("%w: bill %s (gym %d, %d-%02d)",
			xerrors.ErrAlreadySettled, billID, bill.GymID, bill.BillYear, bill.BillMonth)
	}

	ev := &payment.Event{
		ID:            ulid.Make().String(),
		GymID:         bill.GymID,
		BillMonth:     bill.BillMonth,
		BillYear:      bill.BillYear,
		Amount:        input.Amount,
		Method:        input.Method,
		ExternalTxnID: input.ExternalTxnID,
		Description:   input.Description,
		ProcessedBy:   processedBy,
		PaidAt:        s.now(),
	}

	if err := s.ledger.Append(ctx, ev); err != nil {
		// The partial unique index is the dedupe backstop under races.
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) && input.ExternalTxnID != nil {
			return s.ledger.FindByExternalTxnID(ctx, bill.GymID, bill.BillMonth, bill.BillYear, *input.ExternalTxnID)
		}
		return nil, err
	}

	metrics.PaymentsRecorded.Inc()

	totalPaid := bill.TotalPaid + ev.Amount
	status := bill.Status
	if bill.TotalAmount > 0 && totalPaid >= bill.TotalAmount {
		status = billing.StatusFullyPaid
	}

	s.logger.Info("payment recorded",
		zap.String("bill_id", billID),
		zap.Int64("gym_id", bill.GymID),
		zap.String("payment_id", ev.ID),
		zap.Float64("amount", ev.Amount),
		zap.String("method", string(ev.Method)),
		zap.String("status", string(status)))

	if s.notifier != nil {
		s.notifier.PublishSettlement(bill.GymID, Notice{
			BillID:    billID,
			GymID:     bill.GymID,
			Amount:    ev.Amount,
			Method:    string(ev.Method),
			Status:    status,
			TotalPaid: totalPaid,
		})
	}

	return ev, nil
}
