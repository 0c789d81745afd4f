package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const (
	QueueKey      = "checkout:reconcile"
	ProcessingKey = "checkout:reconcile:processing"
	DeadLetterKey = "checkout:reconcile:dead"
)

// LPUSHで積み、LMOVEで古い順に処理中リストへ移す。
// 処理中リストからはAckで初めて消える。
type RedisQueue struct {
	client *redis.Client

	mu       sync.Mutex
	inFlight map[string][]byte
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, inFlight: map[string][]byte{}}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task model.ReconciliationTask) error {
	return q.push(ctx, QueueKey, task)
}

func (q *RedisQueue) DeadLetter(ctx context.Context, task model.ReconciliationTask) error {
	return q.push(ctx, DeadLetterKey, task)
}

func (q *RedisQueue) push(ctx context.Context, key string, task model.ReconciliationTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal reconciliation task: %w", err)
	}
	if err := q.client.LPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("redis lpush failed: %w", err)
	}
	return nil
}

// 空なら(false, nil)
func (q *RedisQueue) Dequeue(ctx context.Context) (model.ReconciliationTask, bool, error) {
	var task model.ReconciliationTask

	raw, err := q.client.LMove(ctx, QueueKey, ProcessingKey, "RIGHT", "LEFT").Bytes()
	if errors.Is(err, redis.Nil) {
		return task, false, nil
	}
	if err != nil {
		return task, false, fmt.Errorf("redis lmove failed: %w", err)
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		// 読めないものは処理中に残さず退避する
		if dlErr := q.client.LPush(ctx, DeadLetterKey, raw).Err(); dlErr == nil {
			q.client.LRem(ctx, ProcessingKey, 1, raw)
		}
		return task, false, fmt.Errorf("unmarshal reconciliation task: %w", err)
	}

	q.mu.Lock()
	q.inFlight[task.ID] = raw
	q.mu.Unlock()
	return task, true, nil
}

// 処理が終わったタスクを処理中リストから消す
func (q *RedisQueue) Ack(ctx context.Context, task model.ReconciliationTask) error {
	q.mu.Lock()
	raw, ok := q.inFlight[task.ID]
	delete(q.inFlight, task.ID)
	q.mu.Unlock()

	if !ok {
		var err error
		if raw, err = json.Marshal(task); err != nil {
			return fmt.Errorf("marshal reconciliation task: %w", err)
		}
	}
	if err := q.client.LRem(ctx, ProcessingKey, 1, raw).Err(); err != nil {
		return fmt.Errorf("redis lrem failed: %w", err)
	}
	return nil
}

// 前回の停止で処理中のまま残ったタスクをキューの先頭に戻す
func (q *RedisQueue) Restore(ctx context.Context) (int64, error) {
	var n int64
	for {
		err := q.client.LMove(ctx, ProcessingKey, QueueKey, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("redis lmove failed: %w", err)
		}
		n++
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueKey).Result()
}
