package sheetsvc

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trezcool/maoni/core"
)

type googleService struct {
	svc *sheets.Service
}

var _ core.SheetService = (*googleService)(nil)

// NewGoogleService authenticates against the Google Sheets API with the
// configured service account key.
func NewGoogleService(ctx context.Context, conf *core.Config) (*googleService, error) {
	data, err := os.ReadFile(conf.Sheets.CredentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading sheets credentials")
	}
	jwtConf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing sheets credentials")
	}
	var ts oauth2.TokenSource = jwtConf.TokenSource(ctx)
	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets client")
	}
	return &googleService{svc: svc}, nil
}

func (s *googleService) GetFile(ctx context.Context, fileID string) (core.SheetFile, error) {
	ss, err := s.svc.Spreadsheets.Get(fileID).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "fetching spreadsheet %s", fileID)
	}
	file := &googleFile{
		svc:  s.svc,
		id:   fileID,
		name: ss.Properties.Title,
		tz:   ss.Properties.TimeZone,
	}
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		file.sheets = append(file.sheets, core.Worksheet{
			ID:    sh.Properties.SheetId,
			Title: sh.Properties.Title,
		})
	}
	return file, nil
}

type googleFile struct {
	svc    *sheets.Service
	id     string
	name   string
	tz     string
	sheets []core.Worksheet
}

var _ core.SheetFile = (*googleFile)(nil)

func (f *googleFile) Name() string                 { return f.name }
func (f *googleFile) TimeZone() string             { return f.tz }
func (f *googleFile) Worksheets() []core.Worksheet { return f.sheets }

// Records reads the worksheet as displayed (formatted values), maps the
// first row as column headers and every following row as one response.
func (f *googleFile) Records(ctx context.Context, ws core.Worksheet) ([]core.Row, error) {
	resp, err := f.svc.Spreadsheets.Values.
		Get(f.id, fmt.Sprintf("'%s'", ws.Title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", ws.Title)
	}
	if len(resp.Values) < 2 {
		return nil, nil // headers only, or nothing at all
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		headers = append(headers, fmt.Sprint(cell))
	}

	rows := make([]core.Row, 0, len(resp.Values)-1)
	for _, data := range resp.Values[1:] {
		row := make(core.Row, len(headers))
		for i, header := range headers {
			if i < len(data) {
				row[header] = data[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
