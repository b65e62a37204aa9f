package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrDoctorLockTimeout is returned when the doctor's schedule stays locked
// for longer than the configured wait timeout
var ErrDoctorLockTimeout = errors.New("timed out waiting for doctor schedule lock")

// releaseLockScript deletes the lock key only if it still holds our token,
// so an expired-and-reacquired lock is never released by the previous owner.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisDoctorLockKeyPrefix = "visit:doctor-lock:"

	mutexCleanupInterval = 10 * time.Minute
	mutexStaleThreshold  = 10 * time.Minute
)

type DoctorLockConfig struct {
	TTL           time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

// DoctorLockService serializes booking attempts per doctor.
//
// Within a process a per-doctor mutex is taken first. When a Redis client is
// configured a Redis lock is then taken so that several processes sharing the
// database also serialize. Lock ordering is always mutex then Redis.
type DoctorLockService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	cfg         DoctorLockConfig

	doctorMu sync.Map // map[int64]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewDoctorLockService starts the stale-mutex cleanup goroutine.
// redisClient may be nil for single-process deployments. Call Stop on shutdown.
func NewDoctorLockService(redisClient *redis.Client, log *logrus.Logger, cfg DoctorLockConfig) *DoctorLockService {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}

	svc := &DoctorLockService{
		redisClient: redisClient,
		log:         log,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service. Safe to call multiple times.
func (s *DoctorLockService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("DoctorLockService stopped")
	}
}

// Lock blocks until the caller owns doctorID's schedule or the wait timeout
// elapses. The returned func releases the lock and must be called exactly once.
func (s *DoctorLockService) Lock(ctx context.Context, doctorID int64) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.WaitTimeout)
	defer cancel()

	mt, err := s.lockDoctorMutex(waitCtx, doctorID)
	if err != nil {
		return nil, err
	}

	if s.redisClient == nil {
		return func() { mt.mu.Unlock() }, nil
	}

	key := fmt.Sprintf("%s%d", RedisDoctorLockKeyPrefix, doctorID)
	token := uuid.NewString()
	if err := s.acquireRedisLock(waitCtx, key, token); err != nil {
		mt.mu.Unlock()
		return nil, err
	}

	return func() {
		// Release even when the request context is already done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseLockScript.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
			s.log.Warnf("Failed to release Redis lock for doctor %d (expires in %v): %+v", doctorID, s.cfg.TTL, err)
		}
		mt.mu.Unlock()
	}, nil
}

// lockDoctorMutex retries when cleanup dropped the mutex from the map while
// we were waiting on it.
func (s *DoctorLockService) lockDoctorMutex(ctx context.Context, doctorID int64) (*mutexWithTimestamp, error) {
	for {
		mt := s.getDoctorMutex(doctorID)
		if err := s.lockMutex(ctx, mt); err != nil {
			return nil, err
		}
		if current, ok := s.doctorMu.Load(doctorID); ok && current == mt {
			return mt, nil
		}
		mt.mu.Unlock()
	}
}

func (s *DoctorLockService) lockMutex(ctx context.Context, mt *mutexWithTimestamp) error {
	for {
		if mt.mu.TryLock() {
			return nil
		}
		select {
		case <-ctx.Done():
			return s.waitError(ctx)
		case <-time.After(s.cfg.RetryInterval):
		}
	}
}

func (s *DoctorLockService) acquireRedisLock(ctx context.Context, key, token string) error {
	for {
		ok, err := s.redisClient.SetNX(ctx, key, token, s.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return s.waitError(ctx)
			}
			s.log.Warnf("Failed to acquire Redis lock %s: %+v", key, err)
			return fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return s.waitError(ctx)
		case <-time.After(s.cfg.RetryInterval):
		}
	}
}

// waitError separates our own wait timeout from caller cancellation
func (s *DoctorLockService) waitError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrDoctorLockTimeout
	}
	return ctx.Err()
}

func (s *DoctorLockService) getDoctorMutex(doctorID int64) *mutexWithTimestamp {
	mt, _ := s.doctorMu.LoadOrStore(doctorID, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (s *DoctorLockService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			s.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes drops mutexes unused since cutoff. Only unheld mutexes
// are dropped; a waiter that loses its mutex retries in lockDoctorMutex.
func (s *DoctorLockService) cleanupStaleMutexes(cutoff time.Time) int {
	cutoffUnix := cutoff.Unix()
	var cleaned int

	s.doctorMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffUnix {
				s.doctorMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale doctor mutexes", cleaned)
	}
	return cleaned
}
