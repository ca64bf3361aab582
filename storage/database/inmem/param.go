package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/param"
)

type paramRepository struct {
	db *DB
}

var _ param.Repository = (*paramRepository)(nil) // interface compliance check

func NewParamRepository(db *DB) *paramRepository {
	return &paramRepository{db: db}
}

func (repo *paramRepository) GetParam(ctx context.Context, name string, exec ...core.DBExecutor) (param.Param, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.params[name]; ok {
		return *p, nil
	}
	return param.Param{}, param.ErrNotFound
}

func (repo *paramRepository) UpsertParam(ctx context.Context, p param.Param, exec ...core.DBExecutor) (param.Param, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if existing, ok := repo.db.params[p.Name]; ok {
		existing.Value = p.Value
		return *existing, nil
	}
	p.ID = uuid.New().String()
	repo.db.params[p.Name] = &p
	return p, nil
}
