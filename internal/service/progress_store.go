package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-autograder/internal/grading"
)

const progressKeyPrefix = "grading:batch:"

// ErrBatchNotFound indicates no progress exists for a run id.
var ErrBatchNotFound = errors.New("batch run not found")

// ProgressStore keeps the latest snapshot of each batch run.
type ProgressStore interface {
	grading.ProgressReporter
	Get(ctx context.Context, runID string) (grading.Progress, error)
}

type progressStore struct {
	redis       *redis.Client
	ttl         time.Duration
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger

	mu     sync.Mutex
	memory map[string]memorySnapshot
	now    func() time.Time
}

type memorySnapshot struct {
	progress  grading.Progress
	expiresAt time.Time
}

// NewProgressStore builds a progress store. Snapshots live in Redis when a client is supplied,
// otherwise in process memory with the same TTL. Every snapshot is also published on NATS
// when connected.
func NewProgressStore(redisClient *redis.Client, ttl time.Duration, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ProgressStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	subject := ""
	if channelBase != "" {
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".grading.progress"
	}

	return &progressStore{
		redis:       redisClient,
		ttl:         ttl,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "progress_store").Logger(),
		memory:      make(map[string]memorySnapshot),
		now:         time.Now,
	}
}

func (s *progressStore) Report(ctx context.Context, progress grading.Progress) {
	payload, err := json.Marshal(progress)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", progress.RunID).Msg("failed to encode batch progress")
		return
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, progressKeyPrefix+progress.RunID, payload, s.ttl).Err(); err != nil {
			s.logger.Warn().Err(err).Str("run_id", progress.RunID).Msg("failed to store batch progress")
		}
	} else {
		s.mu.Lock()
		now := s.now()
		s.evictExpired(now)
		s.memory[progress.RunID] = memorySnapshot{progress: progress, expiresAt: now.Add(s.ttl)}
		s.mu.Unlock()
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Str("run_id", progress.RunID).Msg("failed to publish batch progress")
		}
	}
}

func (s *progressStore) Get(ctx context.Context, runID string) (grading.Progress, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return grading.Progress{}, ErrBatchNotFound
	}

	if s.redis == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.evictExpired(s.now())
		snapshot, ok := s.memory[runID]
		if !ok {
			return grading.Progress{}, ErrBatchNotFound
		}
		return snapshot.progress, nil
	}

	raw, err := s.redis.Get(ctx, progressKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return grading.Progress{}, ErrBatchNotFound
	}
	if err != nil {
		return grading.Progress{}, fmt.Errorf("load batch progress: %w", err)
	}

	var progress grading.Progress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return grading.Progress{}, fmt.Errorf("decode batch progress: %w", err)
	}
	return progress, nil
}

// evictExpired drops in-memory snapshots past their TTL. Callers hold s.mu.
func (s *progressStore) evictExpired(now time.Time) {
	for runID, snapshot := range s.memory {
		if !now.Before(snapshot.expiresAt) {
			delete(s.memory, runID)
		}
	}
}
