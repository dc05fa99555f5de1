//go:build without_sqlite

package memory

import (
	"github.com/habiliai/secondbrain/errors"
)

func NewSqliteStore(dbPath string, dimension int) (Store, error) {
	return nil, errors.Errorf("sqlite memory store is not compiled in")
}
