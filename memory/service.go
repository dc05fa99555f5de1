package memory

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type (
	Service interface {
		Remember(ctx context.Context, input RememberInput) (string, error)
		Retrieve(ctx context.Context, query string, opts *RetrieveOptions) ([]entity.RetrievedMemory, error)
		Forget(ctx context.Context, id string) error
		List(ctx context.Context, kind *entity.MemoryKind) ([]entity.MemoryRecord, error)
		Clear(ctx context.Context) error
		BuildMemoryContext(ctx context.Context, query string) entity.MemoryContext
		Close() error
	}

	RememberInput struct {
		Kind           entity.MemoryKind
		Content        string
		Importance     entity.Importance
		ExplicitRecall bool
		Tags           []string
		Query          string
		Answer         string
	}

	RetrieveOptions struct {
		Limit    int
		MinScore float64
		Kinds    []entity.MemoryKind
	}

	service struct {
		logger   *slog.Logger
		store    Store
		embedder *CachingEmbedder
		config   *config.MemoryConfig
	}
)

var _ Service = (*service)(nil)

func NewService(logger *slog.Logger, store Store, embedder Embedder, conf *config.MemoryConfig) Service {
	return &service{
		logger:   logger,
		store:    store,
		embedder: NewCachingEmbedder(embedder),
		config:   conf,
	}
}

// ScoreFromDistance converts a raw vector distance into a similarity score in
// [0, 1]. Embeddings are normalized, so squared L2 distance lives in [0, 4]
// and 1 - d/2 is monotone-decreasing in distance.
func ScoreFromDistance(distance float64) float64 {
	score := 1 - distance/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Remember embeds the content (never the query) and persists a new record.
// Store failures propagate to the caller.
func (s *service) Remember(ctx context.Context, input RememberInput) (string, error) {
	if input.Content == "" {
		return "", errors.Wrapf(errors.ErrInvalidParams, "memory content is empty")
	}
	if !input.Kind.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidParams, "unknown memory kind %q", input.Kind)
	}

	embedding, err := s.embedder.EmbedText(ctx, input.Content)
	if err != nil {
		return "", errors.Wrapf(err, "failed to embed memory content")
	}

	now := time.Now()
	rec := entity.MemoryRecord{
		ID:             uuid.NewString(),
		Kind:           input.Kind,
		Content:        input.Content,
		Query:          input.Query,
		Answer:         input.Answer,
		Importance:     input.Importance,
		ExplicitRecall: input.ExplicitRecall,
		Tags:           datatypes.NewJSONSlice(input.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Insert(ctx, &rec, embedding); err != nil {
		return "", errors.Wrapf(err, "failed to store memory")
	}

	s.logger.Debug("stored memory", "kind", rec.Kind, "content", lo.Ellipsis(rec.Content, 60))
	return rec.ID, nil
}

// Retrieve over-fetches nearest neighbours, converts distances to scores,
// applies kind and score filters, and returns the top matches sorted by
// descending score. Access counters of the returned records are bumped on a
// detached goroutine; those bumps are best-effort and may be lost.
func (s *service) Retrieve(ctx context.Context, query string, opts *RetrieveOptions) ([]entity.RetrievedMemory, error) {
	if opts == nil {
		opts = &RetrieveOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.RetrieveLimit
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = s.config.MinScore
	}

	queryEmbedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}

	candidates, err := s.store.Search(ctx, queryEmbedding, limit*s.config.OverfetchFactor)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search memories")
	}

	var results []entity.RetrievedMemory
	for _, c := range candidates {
		if len(opts.Kinds) > 0 && !lo.Contains(opts.Kinds, c.Record.Kind) {
			continue
		}
		score := ScoreFromDistance(c.Distance)
		if score < minScore {
			continue
		}
		results = append(results, entity.RetrievedMemory{
			ID:             c.Record.ID,
			Kind:           c.Record.Kind,
			Content:        c.Record.Content,
			Importance:     c.Record.Importance,
			ExplicitRecall: c.Record.ExplicitRecall,
			Score:          score,
			CreatedAt:      c.Record.CreatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	go s.bumpAccessCounts(context.WithoutCancel(ctx), lo.Map(results, func(m entity.RetrievedMemory, _ int) string {
		return m.ID
	}))

	return results, nil
}

func (s *service) bumpAccessCounts(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.store.BumpAccess(ctx, id); err != nil {
			s.logger.Debug("failed to bump access count", "id", id, "error", err)
		}
	}
}

func (s *service) Forget(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, kind *entity.MemoryKind) ([]entity.MemoryRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if kind == nil {
		return records, nil
	}
	return lo.Filter(records, func(rec entity.MemoryRecord, _ int) bool {
		return rec.Kind == *kind
	}), nil
}

// Clear deletes every record. Deletes run concurrently; the first error wins
// but the remaining deletes still complete.
func (s *service) Clear(ctx context.Context) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		eg.Go(func() error {
			return s.store.Delete(ctx, rec.ID)
		})
	}
	return eg.Wait()
}

func (s *service) Close() error {
	return s.store.Close()
}
