package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/param"
)

type dbParam struct {
	ID    string      `db:"id"`
	Name  string      `db:"name"`
	Value null.String `db:"value"`
}

type paramRepository struct {
	exec core.DBExecutor
}

var _ param.Repository = (*paramRepository)(nil) // interface compliance check

func NewParamRepository(exec core.DBExecutor) *paramRepository {
	return &paramRepository{exec: exec}
}

func (repo paramRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo paramRepository) GetParam(ctx context.Context, name string, exec ...core.DBExecutor) (param.Param, error) {
	var m dbParam
	err := repo.getExec(exec).GetContext(ctx, &m,
		`SELECT id, name, value FROM parameter WHERE name = $1`, name)
	if err != nil {
		return param.Param{}, trapNoRowsErr(err, param.ErrNotFound, "finding parameter")
	}
	return param.Param{ID: m.ID, Name: m.Name, Value: m.Value.String}, nil
}

func (repo paramRepository) UpsertParam(ctx context.Context, p param.Param, exec ...core.DBExecutor) (param.Param, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m := dbParam{ID: p.ID, Name: p.Name, Value: null.NewString(p.Value, p.Value != "")}
	_, err := repo.getExec(exec).NamedExecContext(ctx,
		`INSERT INTO parameter (id, name, value) VALUES (:id, :name, :value)
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`, m)
	if err != nil {
		return param.Param{}, errors.Wrap(err, "upserting parameter")
	}
	return p, nil
}
