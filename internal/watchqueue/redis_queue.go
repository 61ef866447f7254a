package watchqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sagemaker-client/internal/config"
)

const (
	readyKey     = "watch:ready"
	inflightKey  = "watch:inflight"
	scheduledKey = "watch:scheduled"
	metaPrefix   = "watch:meta:"
)

// Queue coordinates the poll schedule for registered job watches in Redis.
// A watch waits in the scheduled set until its next poll time, moves to the
// ready list when due, and sits in the in-flight set while a poller holds
// its lease.
type Queue struct {
	client   *redis.Client
	leaseTTL time.Duration
}

// New builds a queue client from config.
func New(cfg config.Config) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lease := cfg.LeaseTimeout
	if lease == 0 {
		lease = 2 * time.Minute
	}
	return &Queue{client: client, leaseTTL: lease}
}

// NewWithClient wires an existing Redis client, used by tests.
func NewWithClient(client *redis.Client, leaseTTL time.Duration) *Queue {
	return &Queue{client: client, leaseTTL: leaseTTL}
}

func metaKey(jobName string) string {
	return metaPrefix + jobName
}

// Register schedules the first poll for a watch. A zero pollAt means the
// watch is ready immediately.
func (q *Queue) Register(ctx context.Context, jobName, kind string, pollAt time.Time) error {
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, metaKey(jobName), "kind", kind)
	if pollAt.After(time.Now()) {
		pipe.ZAdd(ctx, scheduledKey, redis.Z{Score: float64(pollAt.UnixMilli()), Member: jobName})
	} else {
		pipe.RPush(ctx, readyKey, jobName)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Reschedule releases a leased watch and queues its next poll.
func (q *Queue) Reschedule(ctx context.Context, jobName string, nextPoll time.Time) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, inflightKey, jobName)
	pipe.ZAdd(ctx, scheduledKey, redis.Z{Score: float64(nextPoll.UnixMilli()), Member: jobName})
	_, err := pipe.Exec(ctx)
	return err
}

// Kind returns the job kind stored when the watch was registered.
func (q *Queue) Kind(ctx context.Context, jobName string) (string, error) {
	kind, err := q.client.HGet(ctx, metaKey(jobName), "kind").Result()
	if err == redis.Nil {
		return "", fmt.Errorf("no watch registered for %s", jobName)
	}
	return kind, err
}

// PromoteDue moves watches whose poll time has arrived into the ready list.
// It returns how many were promoted.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time, limit int64) (int, error) {
	names, err := q.client.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    fmt.Sprintf("%d", now.UnixMilli()),
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}

	pipe := q.client.TxPipeline()
	for _, name := range names {
		pipe.ZRem(ctx, scheduledKey, name)
		pipe.RPush(ctx, readyKey, name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(names), nil
}

// DequeueWithLease pops a ready watch and places it into the in-flight set
// with a lease deadline. It returns "" when nothing is ready.
func (q *Queue) DequeueWithLease(ctx context.Context) (string, error) {
	res, err := dequeueScript.Run(ctx, q.client, []string{readyKey, inflightKey},
		time.Now().Add(q.leaseTTL).UnixMilli()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	name, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type from dequeue script: %T", res)
	}
	return name, nil
}

// ExtendLease pushes the lease deadline forward for an in-flight watch.
func (q *Queue) ExtendLease(ctx context.Context, jobName string, extension time.Duration) error {
	return q.client.ZAdd(ctx, inflightKey, redis.Z{
		Score:  float64(time.Now().Add(extension).UnixMilli()),
		Member: jobName,
	}).Err()
}

// Retire removes a settled watch from all queue structures.
func (q *Queue) Retire(ctx context.Context, jobName string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, readyKey, 0, jobName)
	pipe.ZRem(ctx, inflightKey, jobName)
	pipe.ZRem(ctx, scheduledKey, jobName)
	pipe.Del(ctx, metaKey(jobName))
	_, err := pipe.Exec(ctx)
	return err
}

// RequeueExpired reclaims leases that timed out, making the watches ready
// again. Returns the reclaimed names.
func (q *Queue) RequeueExpired(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	names, err := q.client.ZRangeByScore(ctx, inflightKey, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    fmt.Sprintf("%d", now.UnixMilli()),
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	pipe := q.client.TxPipeline()
	for _, name := range names {
		pipe.ZRem(ctx, inflightKey, name)
		pipe.RPush(ctx, readyKey, name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return names, nil
}

// Depth returns the number of watches waiting in the scheduled set and
// ready list combined.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	pipe := q.client.Pipeline()
	ready := pipe.LLen(ctx, readyKey)
	scheduled := pipe.ZCard(ctx, scheduledKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return ready.Val() + scheduled.Val(), nil
}

// InFlight returns how many watches are currently leased.
func (q *Queue) InFlight(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, inflightKey).Result()
}

var dequeueScript = redis.NewScript(`
local watch = redis.call('LPOP', KEYS[1])
if watch then
  redis.call('ZADD', KEYS[2], ARGV[1], watch)
  return watch
end
return nil
`)
