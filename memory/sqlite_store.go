//go:build !without_sqlite

package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteStore persists memories in SQLite: records in a regular gorm table,
// embeddings in a sqlite-vec vec0 virtual table keyed by record id.
type SqliteStore struct {
	db     *gorm.DB
	vecDim int
}

var _ Store = (*SqliteStore)(nil)

func NewSqliteStore(dbPath string, dimension int) (*SqliteStore, error) {
	sqlite_vec.Auto()

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create memory directory at %s", dir)
		}
	}

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	store := &SqliteStore{
		db:     db,
		vecDim: dimension,
	}

	if err := db.AutoMigrate(&entity.MemoryRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate memory records table")
	}

	if err := store.bootstrapVectorTable(); err != nil {
		return nil, err
	}

	return store, nil
}

// bootstrapVectorTable creates the vec0 virtual table. A throwaway zero
// vector is inserted and deleted right away so the table's dimension is fixed
// on first use without leaving a visible artifact.
func (s *SqliteStore) bootstrapVectorTable() error {
	var sqliteVersion, vecVersion string
	if err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion); err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(
			memory_id TEXT PRIMARY KEY,
			embedding float[%d]
		);
	`, s.vecDim)
	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create memory_vectors table")
	}

	zero, err := sqlite_vec.SerializeFloat32(make([]float32, s.vecDim))
	if err != nil {
		return errors.Wrapf(err, "failed to serialize bootstrap vector")
	}
	if err := s.db.Exec("INSERT OR REPLACE INTO memory_vectors (memory_id, embedding) VALUES (?, ?)", "bootstrap", zero).Error; err != nil {
		return errors.Wrapf(err, "failed to insert bootstrap vector")
	}
	if err := s.db.Exec("DELETE FROM memory_vectors WHERE memory_id = ?", "bootstrap").Error; err != nil {
		return errors.Wrapf(err, "failed to delete bootstrap vector")
	}

	return nil
}

func (s *SqliteStore) Insert(ctx context.Context, rec *entity.MemoryRecord, embedding []float32) error {
	if rec.ID == "" {
		return errors.New("memory record id is empty")
	}
	if len(embedding) != s.vecDim {
		return errors.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.vecDim)
	}

	serialized, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize embedding")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(rec).Error; err != nil {
			return errors.Wrapf(err, "failed to save memory record")
		}
		if err := tx.Exec("DELETE FROM memory_vectors WHERE memory_id = ?", rec.ID).Error; err != nil {
			return errors.Wrapf(err, "failed to delete existing vector")
		}
		if err := tx.Exec("INSERT INTO memory_vectors (memory_id, embedding) VALUES (?, ?)", rec.ID, serialized).Error; err != nil {
			return errors.Wrapf(err, "failed to insert memory vector")
		}
		return nil
	})
}

func (s *SqliteStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Candidate, error) {
	if len(queryEmbedding) == 0 {
		return nil, nil
	}

	serialized, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT memory_id, distance
		FROM memory_vectors
		WHERE embedding MATCH ?
		ORDER BY distance
		LIMIT ?
	`, serialized, k).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to execute vector search")
	}
	defer rows.Close()

	var ids []string
	distances := make(map[string]float64)
	for rows.Next() {
		var (
			id       string
			distance float64
		)
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan search row")
		}
		ids = append(ids, id)
		distances[id] = distance
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var records []entity.MemoryRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch memory records")
	}
	byID := make(map[string]entity.MemoryRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// Preserve the distance ordering from the vector search.
	candidates := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Record:   rec,
			Distance: distances[id],
		})
	}
	return candidates, nil
}

func (s *SqliteStore) BumpAccess(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&entity.MemoryRecord{}).
		Where("id = ?", id).
		UpdateColumn("access_count", gorm.Expr("access_count + 1")).Error
}

func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM memory_vectors WHERE memory_id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete memory vector")
		}
		if err := tx.Delete(&entity.MemoryRecord{}, "id = ?", id).Error; err != nil {
			return errors.Wrapf(err, "failed to delete memory record")
		}
		return nil
	})
}

func (s *SqliteStore) List(ctx context.Context) ([]entity.MemoryRecord, error) {
	var records []entity.MemoryRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list memory records")
	}
	return records, nil
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
