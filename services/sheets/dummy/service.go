// Package dummysheets provides an in-memory SheetService for tests.
package dummysheets

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
)

type (
	Service struct {
		files map[string]*File
	}

	File struct {
		FileName string
		TZ       string
		Sheets   []core.Worksheet

		rows     map[int64][]core.Row
		rowsErrs map[int64]error
	}
)

var _ core.SheetService = (*Service)(nil)
var _ core.SheetFile = (*File)(nil)

func NewService() *Service {
	return &Service{files: make(map[string]*File)}
}

// AddFile registers a reachable file under fileID and returns it for
// sheet/row setup.
func (svc *Service) AddFile(fileID, name, tz string) *File {
	f := &File{
		FileName: name,
		TZ:       tz,
		rows:     make(map[int64][]core.Row),
		rowsErrs: make(map[int64]error),
	}
	svc.files[fileID] = f
	return f
}

func (svc *Service) RemoveFile(fileID string) {
	delete(svc.files, fileID)
}

func (svc *Service) GetFile(ctx context.Context, fileID string) (core.SheetFile, error) {
	if f, ok := svc.files[fileID]; ok {
		return f, nil
	}
	return nil, errors.Errorf("file %s not found or not shared", fileID)
}

func (f *File) AddSheet(id int64, title string, rows ...core.Row) *File {
	f.Sheets = append(f.Sheets, core.Worksheet{ID: id, Title: title})
	f.rows[id] = rows
	return f
}

// SetRows replaces a sheet's data in place, as a respondent editing the
// live spreadsheet would.
func (f *File) SetRows(sheetID int64, rows ...core.Row) {
	f.rows[sheetID] = rows
}

// FailRecords makes reads of one sheet's data fail.
func (f *File) FailRecords(sheetID int64, err error) {
	f.rowsErrs[sheetID] = err
}

func (f *File) Name() string                 { return f.FileName }
func (f *File) TimeZone() string             { return f.TZ }
func (f *File) Worksheets() []core.Worksheet { return f.Sheets }

func (f *File) Records(ctx context.Context, ws core.Worksheet) ([]core.Row, error) {
	if err := f.rowsErrs[ws.ID]; err != nil {
		return nil, err
	}
	return f.rows[ws.ID], nil
}
