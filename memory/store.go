package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"gonum.org/v1/gonum/mat"
)

type (
	// Candidate is a raw nearest-neighbour hit: the stored record plus its
	// distance under the store's metric. Score conversion and filtering
	// happen above the store, which stays kind-agnostic.
	Candidate struct {
		Record   entity.MemoryRecord
		Distance float64
	}

	// Store is the persistence boundary of the memory subsystem.
	Store interface {
		Insert(ctx context.Context, rec *entity.MemoryRecord, embedding []float32) error
		// Search returns up to k candidates ordered by ascending distance.
		Search(ctx context.Context, queryEmbedding []float32, k int) ([]Candidate, error)
		// BumpAccess increments the access counter of one record. Best-effort.
		BumpAccess(ctx context.Context, id string) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]entity.MemoryRecord, error)
		Close() error
	}

	storedRow struct {
		record    entity.MemoryRecord
		embedding []float32
	}

	// InMemoryStore keeps everything in a map and scores candidates with a
	// dense matrix-vector product. It backs tests and configurations without
	// a sqlite path; nothing survives the process.
	InMemoryStore struct {
		mu   sync.RWMutex
		rows map[string]storedRow
	}
)

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows: make(map[string]storedRow),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, rec *entity.MemoryRecord, embedding []float32) error {
	if rec.ID == "" {
		return errors.New("memory record id is empty")
	}
	if len(embedding) == 0 {
		return errors.New("memory record embedding is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.ID] = storedRow{record: *rec, embedding: embedding}
	return nil
}

func (s *InMemoryStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryEmbedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}

	var rows []storedRow
	for _, row := range s.rows {
		if len(row.embedding) == len(queryEmbedding) {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	dim := len(queryEmbedding)
	queryVec := make([]float64, dim)
	for i, v := range queryEmbedding {
		queryVec[i] = float64(v)
	}

	data := make([]float64, len(rows)*dim)
	for i, row := range rows {
		for j, v := range row.embedding {
			data[i*dim+j] = float64(v)
		}
	}

	// Inner products against all rows in one multiplication. Embeddings are
	// normalized, so squared L2 distance is 2 - 2*cos.
	var products mat.VecDense
	products.MulVec(mat.NewDense(len(rows), dim, data), mat.NewVecDense(dim, queryVec))

	candidates := make([]Candidate, 0, len(rows))
	for i, row := range rows {
		candidates = append(candidates, Candidate{
			Record:   row.record,
			Distance: 2 - 2*products.AtVec(i),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *InMemoryStore) BumpAccess(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "memory %s", id)
	}
	row.record.AccessCount++
	s.rows[id] = row
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]entity.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]entity.MemoryRecord, 0, len(s.rows))
	for _, row := range s.rows {
		records = append(records, row.record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
