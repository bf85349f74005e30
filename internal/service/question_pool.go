package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/quizhub-api/internal/observability"
	"github.com/noah-isme/quizhub-api/internal/repository"
)

const questionPoolKeyPrefix = "quizhub:questions:course:"

// QuestionPool draws random question ids for a course.
type QuestionPool interface {
	Sample(ctx context.Context, course string, size int) ([]uint, error)
	Invalidate(ctx context.Context, courses ...string)
}

type questionPool struct {
	repo   repository.QuestionRepository
	redis  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// NewQuestionPool builds a sampler that caches per-course id sets in Redis when a client is supplied.
func NewQuestionPool(repo repository.QuestionRepository, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) QuestionPool {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &questionPool{
		repo:   repo,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.With().Str("component", "question_pool").Logger(),
	}
}

func (p *questionPool) Sample(ctx context.Context, course string, size int) ([]uint, error) {
	if size <= 0 {
		return []uint{}, nil
	}

	if p.redis == nil {
		return p.sampleFromDB(ctx, course, size)
	}

	key := questionPoolKey(course)
	ids, err := p.randomMembers(ctx, key, size)
	if err == nil && len(ids) > 0 {
		observability.QuestionPoolLookups().WithLabelValues("cache").Inc()
		return ids, nil
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("course", course).Msg("question pool read failed, sampling from database")
		return p.sampleFromDB(ctx, course, size)
	}

	if _, err, _ := p.group.Do(course, func() (interface{}, error) {
		return nil, p.fill(ctx, course, key)
	}); err != nil {
		p.logger.Warn().Err(err).Str("course", course).Msg("question pool fill failed, sampling from database")
		return p.sampleFromDB(ctx, course, size)
	}
	observability.QuestionPoolLookups().WithLabelValues("fill").Inc()

	ids, err = p.randomMembers(ctx, key, size)
	if err != nil {
		return p.sampleFromDB(ctx, course, size)
	}
	return ids, nil
}

func (p *questionPool) Invalidate(ctx context.Context, courses ...string) {
	if p.redis == nil || len(courses) == 0 {
		return
	}
	keys := make([]string, 0, len(courses))
	for _, course := range courses {
		if course == "" {
			continue
		}
		keys = append(keys, questionPoolKey(course))
	}
	if len(keys) == 0 {
		return
	}
	if err := p.redis.Del(ctx, keys...).Err(); err != nil {
		p.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate question pool")
	}
}

func (p *questionPool) fill(ctx context.Context, course, key string) error {
	ids, err := p.repo.IDsByCourse(ctx, course)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}

	pipe := p.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, p.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// randomMembers relies on SRANDMEMBER with a positive count returning distinct members.
func (p *questionPool) randomMembers(ctx context.Context, key string, size int) ([]uint, error) {
	raw, err := p.redis.SRandMemberN(ctx, key, int64(size)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(raw))
	for _, value := range raw {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt question pool member %q: %w", value, err)
		}
		ids = append(ids, uint(parsed))
	}
	return ids, nil
}

func (p *questionPool) sampleFromDB(ctx context.Context, course string, size int) ([]uint, error) {
	questions, err := p.repo.SampleByCourse(ctx, course, size)
	if err != nil {
		return nil, err
	}
	observability.QuestionPoolLookups().WithLabelValues("database").Inc()
	ids := make([]uint, 0, len(questions))
	for _, question := range questions {
		ids = append(ids, question.ID)
	}
	return ids, nil
}

func questionPoolKey(course string) string {
	return questionPoolKeyPrefix + course
}
