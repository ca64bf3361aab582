// Package param persists named settings overriding the configuration
// defaults. The set of parameter names is closed: unknown names are
// rejected rather than looked up dynamically.
package param

import (
	"context"
	"errors"
	"strconv"

	"github.com/trezcool/maoni/core"
)

// Known parameter names.
const (
	MaxDaysToEndDate      = "MAX_DAYS_TO_ENDDATE"
	MaxDaysSheetUnchanged = "MAX_DAYS_SHEET_UNCHANGED"
)

var (
	ErrNotFound = errors.New("parameter not found")
	ErrUnknown  = errors.New("unknown parameter name")

	// schema: every known parameter with its typed default
	intDefaults = map[string]int{
		MaxDaysToEndDate:      core.DefaultMaxDaysToEndDate,
		MaxDaysSheetUnchanged: core.DefaultMaxDaysSheetUnchanged,
	}
)

type (
	Param struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	Repository interface {
		GetParam(ctx context.Context, name string, exec ...core.DBExecutor) (Param, error)
		UpsertParam(ctx context.Context, p Param, exec ...core.DBExecutor) (Param, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetInt returns the persisted value for a known integer parameter, or its
// default when unset or unparsable.
func (svc *Service) GetInt(ctx context.Context, name string) (int, error) {
	def, ok := intDefaults[name]
	if !ok {
		return 0, ErrUnknown
	}
	p, err := svc.repo.GetParam(ctx, name)
	if err != nil {
		if err == ErrNotFound {
			return def, nil
		}
		return 0, err
	}
	val, err := strconv.Atoi(core.CleanString(p.Value))
	if err != nil || val <= 0 {
		return def, nil
	}
	return val, nil
}

func (svc *Service) SetInt(ctx context.Context, name string, value int) error {
	if _, ok := intDefaults[name]; !ok {
		return ErrUnknown
	}
	_, err := svc.repo.UpsertParam(ctx, Param{Name: name, Value: strconv.Itoa(value)})
	return err
}

// SyncConfig assembles the scheduler configuration from persisted
// parameters, falling back to the defaults.
func (svc *Service) SyncConfig(ctx context.Context) (core.SyncConfig, error) {
	maxEnd, err := svc.GetInt(ctx, MaxDaysToEndDate)
	if err != nil {
		return core.SyncConfig{}, err
	}
	maxUnchanged, err := svc.GetInt(ctx, MaxDaysSheetUnchanged)
	if err != nil {
		return core.SyncConfig{}, err
	}
	return core.SyncConfig{
		MaxDaysToEndDate:      maxEnd,
		MaxDaysSheetUnchanged: maxUnchanged,
	}, nil
}
