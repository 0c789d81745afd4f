package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"go.uber.org/zap"
)

// 1回のtickで処理する最大件数
const reconcileBatchSize = 20

// 決済済みで未保存の注文を定期的に登録し直す
type ReconcilePoller struct {
	queue       ReconcileQueue
	checkout    *CheckoutUsecase
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

func NewReconcilePoller(queue ReconcileQueue, checkout *CheckoutUsecase, interval time.Duration, maxAttempts int, logger *zap.Logger) *ReconcilePoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ReconcilePoller{
		queue:       queue,
		checkout:    checkout,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (p *ReconcilePoller) Run(ctx context.Context) {
	if n, err := p.queue.Restore(ctx); err != nil {
		p.logger.Error("restore reconciliation", zap.Error(err))
	} else if n > 0 {
		p.logger.Info("restored in-flight reconciliation", zap.Int64("count", n))
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ProcessOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// キューにあるタスクを処理し、登録できた件数を返す。
// 失敗したものは最後にまとめて戻す（同じtickで再処理しない）。
// 戻すまではキューの処理中リストに残るので、途中で止まっても失われない。
func (p *ReconcilePoller) ProcessOnce(ctx context.Context) int {
	type failed struct {
		orig, next model.ReconciliationTask
	}
	var (
		placed int
		retry  []failed
	)
	// 停止中でも後始末は最後まで書く
	cleanup := context.WithoutCancel(ctx)

	for i := 0; i < reconcileBatchSize && ctx.Err() == nil; i++ {
		task, ok, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Error("dequeue reconciliation", zap.Error(err))
			break
		}
		if !ok {
			break
		}

		if err := p.place(ctx, task); err != nil {
			next := task
			next.Attempts++
			next.LastError = err.Error()
			if next.Attempts >= p.maxAttempts {
				p.deadLetter(cleanup, task, next)
				continue
			}
			p.logger.Warn("reconciliation failed, will retry",
				zap.String("reconciliation_id", task.ID),
				zap.Int("attempts", next.Attempts),
				zap.Error(err),
			)
			retry = append(retry, failed{orig: task, next: next})
			continue
		}
		placed++
		p.ack(cleanup, task)
	}

	for _, r := range retry {
		if err := p.queue.Enqueue(cleanup, r.next); err != nil {
			p.logger.Error("requeue reconciliation",
				zap.String("reconciliation_id", r.next.ID),
				zap.String("payment_reference", r.next.PaymentReference),
				zap.Error(err),
			)
			continue
		}
		p.ack(cleanup, r.orig)
	}
	return placed
}

func (p *ReconcilePoller) place(ctx context.Context, task model.ReconciliationTask) error {
	order, items, err := p.checkout.placeOrder(ctx, task.UserID, task.Customer, task.Cart, task.Total, task.Currency, OrderTerms{
		Method:           task.PaymentMethod,
		Status:           task.Status,
		PaymentStatus:    task.PaymentStatus,
		PaymentReference: task.PaymentReference,
	})
	if err != nil {
		return err
	}
	p.logger.Info("reconciled order",
		zap.String("reconciliation_id", task.ID),
		zap.Int64("order_id", order.ID),
	)
	p.checkout.publishPlaced(ctx, order, items)
	return nil
}

func (p *ReconcilePoller) ack(ctx context.Context, task model.ReconciliationTask) {
	if err := p.queue.Ack(ctx, task); err != nil {
		p.logger.Error("ack reconciliation",
			zap.String("reconciliation_id", task.ID),
			zap.Error(err),
		)
	}
}

func (p *ReconcilePoller) deadLetter(ctx context.Context, orig, task model.ReconciliationTask) {
	p.logger.Error("reconciliation gave up",
		zap.String("reconciliation_id", task.ID),
		zap.Int64("user_id", task.UserID),
		zap.String("payment_reference", task.PaymentReference),
		zap.Int("attempts", task.Attempts),
		zap.String("last_error", task.LastError),
	)
	if err := p.queue.DeadLetter(ctx, task); err != nil {
		p.logger.Error("dead letter reconciliation",
			zap.String("reconciliation_id", task.ID),
			zap.Error(err),
		)
		return
	}
	p.ack(ctx, orig)
}
