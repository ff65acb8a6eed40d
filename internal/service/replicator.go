package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/pkg/logger"
	"github.com/d60-Lab/social-feed/pkg/metrics"
)

type replicateAction int

const (
	actionAdd replicateAction = iota + 1
	actionRemove
	actionPurge
)

func (a replicateAction) String() string {
	switch a {
	case actionAdd:
		return "add"
	case actionRemove:
		return "remove"
	case actionPurge:
		return "purge"
	}
	return "unknown"
}

type replicateJob struct {
	action replicateAction
	userID model.AccountID
	fanID  model.AccountID
	enqAt  time.Time
}

// FanReplicator 本地异步维护粉丝冗余表（follows 的反向索引）。
// 按被关注者哈希分片，每个分片一个消费者，同一账号的任务按入队顺序执行。
// 队列满时丢弃并记录，follows 表始终是权威数据。
type FanReplicator struct {
	fanRepo repository.FanRepository
	shards  []chan replicateJob
}

// NewFanReplicator queueSize 为各分片容量之和，workers 为分片数
func NewFanReplicator(fanRepo repository.FanRepository, queueSize, workers int) *FanReplicator {
	if queueSize <= 0 {
		queueSize = 10000
	}
	if workers <= 0 {
		workers = 4
	}
	per := (queueSize + workers - 1) / workers
	shards := make([]chan replicateJob, workers)
	for i := range shards {
		shards[i] = make(chan replicateJob, per)
	}
	return &FanReplicator{fanRepo: fanRepo, shards: shards}
}

func (r *FanReplicator) shard(userID model.AccountID) chan replicateJob {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Start 每个分片启动一个消费者，返回停止函数；停止时各消费者排空自己的分片后退出
func (r *FanReplicator) Start() func(context.Context) error {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for _, ch := range r.shards {
		wg.Add(1)
		go func(ch chan replicateJob) {
			defer wg.Done()
			for {
				select {
				case job := <-ch:
					r.apply(job)
				case <-stopCh:
					for {
						select {
						case job := <-ch:
							r.apply(job)
						default:
							return
						}
					}
				}
			}
		}(ch)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *FanReplicator) apply(job replicateJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch job.action {
	case actionAdd:
		err = r.fanRepo.Create(ctx, job.userID, job.fanID)
	case actionRemove:
		err = r.fanRepo.Delete(ctx, job.userID, job.fanID)
	case actionPurge:
		err = r.fanRepo.DeleteUser(ctx, job.userID)
	}
	if err != nil {
		logger.Warn("replicate fan row failed",
			zap.Stringer("action", job.action),
			zap.String("user", job.userID.String()),
			zap.String("fan", job.fanID.String()),
			zap.Error(err))
	}
	metrics.ReplicatorQueue.Set(float64(r.QueueLen()))
	metrics.ReplicatorLag.Observe(time.Since(job.enqAt).Seconds())
}

func (r *FanReplicator) enqueue(ch chan replicateJob, job replicateJob) {
	job.enqAt = time.Now()
	select {
	case ch <- job:
		metrics.ReplicatorQueue.Set(float64(r.QueueLen()))
	default:
		metrics.ReplicatorDropped.WithLabelValues(job.action.String()).Inc()
		logger.Warn("replicator queue full, drop job",
			zap.Stringer("action", job.action),
			zap.String("user", job.userID.String()),
			zap.String("fan", job.fanID.String()))
	}
}

func (r *FanReplicator) EnqueueAdd(userID, fanID model.AccountID) {
	r.enqueue(r.shard(userID), replicateJob{action: actionAdd, userID: userID, fanID: fanID})
}

func (r *FanReplicator) EnqueueRemove(userID, fanID model.AccountID) {
	r.enqueue(r.shard(userID), replicateJob{action: actionRemove, userID: userID, fanID: fanID})
}

// EnqueuePurge 账号删除后清理其全部粉丝行。
// 该账号作为粉丝的行分散在各分片，因此向每个分片各投递一次，排在此前的 add 之后执行。
func (r *FanReplicator) EnqueuePurge(userID model.AccountID) {
	for _, ch := range r.shards {
		r.enqueue(ch, replicateJob{action: actionPurge, userID: userID})
	}
}

// QueueLen 当前队列长度（采样值）
func (r *FanReplicator) QueueLen() int {
	n := 0
	for _, ch := range r.shards {
		n += len(ch)
	}
	return n
}
