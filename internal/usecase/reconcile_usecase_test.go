package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/reconcile"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pendingTask(id string, attempts int) model.ReconciliationTask {
	return model.ReconciliationTask{
		ID:               id,
		UserID:           buyerID,
		PaymentMethod:    model.PaymentMethodCard,
		Status:           model.OrderStatusCompleted,
		PaymentStatus:    model.PaymentStatusPaid,
		PaymentReference: "pi_" + id,
		Customer:         validCustomer(),
		Cart:             workedExampleCart(),
		Total:            decimal.RequireFromString("20.00"),
		Currency:         "USD",
		Attempts:         attempts,
		CreatedAt:        fixedNow,
	}
}

func TestReconcilePoller_ProcessOnce_PlacesQueuedOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	task := pendingTask("r1", 1)
	f.queue.On("Dequeue", mock.Anything).Return(task, true, nil).Once()
	f.queue.On("Dequeue", mock.Anything).Return(model.ReconciliationTask{}, false, nil).Once()
	f.expectPersist(30, func(o model.Order) bool {
		return o.PaymentReference == "pi_r1" &&
			o.Status == model.OrderStatusCompleted &&
			o.PaymentStatus == model.PaymentStatusPaid &&
			o.TotalAmount.StringFixed(2) == "20.00"
	})

	f.queue.On("Ack", mock.Anything, task).Return(nil).Once()

	p := NewReconcilePoller(f.queue, f.u, 0, 3, zap.NewNop())
	placed := p.ProcessOnce(context.Background())

	assert.Equal(t, 1, placed)
	f.queue.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.publisher.AssertNumberOfCalls(t, "PublishOrderPlaced", 1)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "DeadLetter", mock.Anything, mock.Anything)
}

func TestReconcilePoller_ProcessOnce_RequeuesFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.queue.On("Dequeue", mock.Anything).Return(pendingTask("r2", 1), true, nil).Once()
	f.queue.On("Dequeue", mock.Anything).Return(model.ReconciliationTask{}, false, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.profiles.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db still down"))

	var requeued model.ReconciliationTask
	f.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(task model.ReconciliationTask) bool {
		requeued = task
		return true
	})).Return(nil)
	f.queue.On("Ack", mock.Anything, pendingTask("r2", 1)).Return(nil).Once()

	p := NewReconcilePoller(f.queue, f.u, 0, 3, zap.NewNop())
	placed := p.ProcessOnce(context.Background())

	assert.Equal(t, 0, placed)
	require.Equal(t, "r2", requeued.ID)
	assert.Equal(t, 2, requeued.Attempts)
	assert.Contains(t, requeued.LastError, "db still down")
	f.queue.AssertCalled(t, "Ack", mock.Anything, pendingTask("r2", 1))
	f.queue.AssertNotCalled(t, "DeadLetter", mock.Anything, mock.Anything)
}

func TestReconcilePoller_ProcessOnce_DeadLettersAtMaxAttempts(t *testing.T) {
	f := newCheckoutFixture(t)
	f.queue.On("Dequeue", mock.Anything).Return(pendingTask("r3", 2), true, nil).Once()
	f.queue.On("Dequeue", mock.Anything).Return(model.ReconciliationTask{}, false, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.profiles.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(int64(0), errors.New("constraint"))
	f.queue.On("DeadLetter", mock.Anything, mock.MatchedBy(func(task model.ReconciliationTask) bool {
		return task.ID == "r3" && task.Attempts == 3
	})).Return(nil)
	f.queue.On("Ack", mock.Anything, pendingTask("r3", 2)).Return(nil).Once()

	p := NewReconcilePoller(f.queue, f.u, 0, 3, zap.NewNop())
	placed := p.ProcessOnce(context.Background())

	assert.Equal(t, 0, placed)
	f.queue.AssertExpectations(t)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestReconcilePoller_ProcessOnce_StopsOnDequeueError(t *testing.T) {
	f := newCheckoutFixture(t)
	f.queue.On("Dequeue", mock.Anything).Return(model.ReconciliationTask{}, false, errors.New("redis down")).Once()

	p := NewReconcilePoller(f.queue, f.u, 0, 0, zap.NewNop())

	assert.Equal(t, 0, p.ProcessOnce(context.Background()))
	f.queue.AssertNumberOfCalls(t, "Dequeue", 1)
}

func TestReconcilePoller_ProcessOnce_RequeueIgnoresCancel(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.queue.On("Dequeue", mock.Anything).Return(pendingTask("r4", 1), true, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.profiles.On("Upsert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(context.Canceled)
	live := mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })
	f.queue.On("Enqueue", live, mock.MatchedBy(func(task model.ReconciliationTask) bool {
		return task.ID == "r4" && task.Attempts == 2
	})).Return(nil).Once()
	f.queue.On("Ack", live, pendingTask("r4", 1)).Return(nil).Once()

	p := NewReconcilePoller(f.queue, f.u, 0, 3, zap.NewNop())

	assert.Equal(t, 0, p.ProcessOnce(ctx))
	f.queue.AssertExpectations(t)
	// 止まった後は次を取りに行かない
	f.queue.AssertNumberOfCalls(t, "Dequeue", 1)
}

func TestReconcilePoller_ProcessOnce_TaskSurvivesShutdown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	queue := reconcile.NewRedisQueue(client)
	require.NoError(t, queue.Enqueue(context.Background(), pendingTask("r5", 1)))

	f := newCheckoutFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.profiles.On("Upsert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(context.Canceled)

	p := NewReconcilePoller(queue, f.u, 0, 3, zap.NewNop())
	assert.Equal(t, 0, p.ProcessOnce(ctx))

	n, err := queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists(reconcile.ProcessingKey))
	assert.False(t, mr.Exists(reconcile.DeadLetterKey))

	task, ok, err := queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r5", task.ID)
	assert.Equal(t, 2, task.Attempts)
}

func TestReconcilePoller_RunRestoresInFlight(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.queue.On("Restore", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(int64(2), nil).Once()

	p := NewReconcilePoller(f.queue, f.u, time.Hour, 3, zap.NewNop())
	p.Run(ctx)

	f.queue.AssertExpectations(t)
	f.queue.AssertNotCalled(t, "Dequeue", mock.Anything)
}
