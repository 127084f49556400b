package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"picking-verification-backend/internal/apperrors"
)

// SheetsStore uses one worksheet of a Google spreadsheet as the live table.
// Snapshots are added to the same spreadsheet as new worksheets.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

func NewSheetsStore(ctx context.Context, credentialsJSON []byte, spreadsheetID, worksheet string) (*SheetsStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return newSheetsStore(svc, spreadsheetID, worksheet), nil
}

func newSheetsStore(svc *sheets.Service, spreadsheetID, worksheet string) *SheetsStore {
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

func (s *SheetsStore) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1(s.worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return fromValues(resp.Values), nil
}

func (s *SheetsStore) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1(s.worksheet), &sheets.ValueRange{
		Values: toValues(rows),
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsStore) DeleteRows(ctx context.Context, column, value string) (int, error) {
	lines, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}
	idx := columnIndex(lines[0], column)
	if idx < 0 {
		return 0, fmt.Errorf("column %q not in store header", column)
	}

	var matches []int64
	for i := 1; i < len(lines); i++ {
		if cell(lines[i], idx) == value {
			matches = append(matches, int64(i))
		}
	}
	if len(matches) == 0 {
		return 0, nil
	}

	sheetID, err := s.sheetID(ctx)
	if err != nil {
		return 0, err
	}

	// Bottom-up so earlier indices stay valid within the batch.
	sort.Slice(matches, func(a, b int) bool { return matches[a] > matches[b] })
	requests := make([]*sheets.Request, 0, len(matches))
	for _, row := range matches {
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: row,
					EndIndex:   row + 1,
				},
			},
		})
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// CreateSnapshot adds the worksheet and fills it in one batch update, so a
// failed write never leaves an empty snapshot behind.
func (s *SheetsStore) CreateSnapshot(ctx context.Context, name string, rows [][]string) error {
	cols := 0
	data := make([]*sheets.RowData, 0, len(rows))
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
		cells := make([]*sheets.CellData, 0, len(r))
		for _, v := range r {
			c := &sheets.CellData{}
			if v != "" {
				c.UserEnteredValue = &sheets.ExtendedValue{StringValue: &v}
			}
			cells = append(cells, c)
		}
		data = append(data, &sheets.RowData{Values: cells})
	}

	id := snapshotSheetID(name)
	requests := []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				SheetId: id,
				Title:   name,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(len(rows) + 10),
					ColumnCount: int64(cols + 5),
				},
			},
		},
	}}
	if len(data) > 0 {
		requests = append(requests, &sheets.Request{
			UpdateCells: &sheets.UpdateCellsRequest{
				Start:  &sheets.GridCoordinate{SheetId: id},
				Rows:   data,
				Fields: "userEnteredValue",
			},
		})
	}

	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if isDuplicateSheet(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrSnapshotExists, name)
	}
	return err
}

func (s *SheetsStore) Snapshot(ctx context.Context, name string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1(name)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 400 {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, name)
		}
		return nil, err
	}
	return fromValues(resp.Values), nil
}

func (s *SheetsStore) Clear(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, a1(s.worksheet), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

// Snapshots lists every worksheet other than the live one.
func (s *SheetsStore) Snapshots(ctx context.Context) ([]string, error) {
	props, err := s.properties(ctx)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, p := range props {
		if p.Title != s.worksheet {
			names = append(names, p.Title)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *SheetsStore) sheetID(ctx context.Context) (int64, error) {
	props, err := s.properties(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range props {
		if p.Title == s.worksheet {
			return p.SheetId, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found", s.worksheet)
}

func (s *SheetsStore) properties(ctx context.Context) ([]*sheets.SheetProperties, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	props := make([]*sheets.SheetProperties, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			props = append(props, sh.Properties)
		}
	}
	return props, nil
}

// snapshotSheetID derives a sheet id from the title so cells can be
// written in the same batch update that adds the sheet.
func snapshotSheetID(name string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	id := int64(h.Sum32() & 0x7fffffff)
	if id == 0 {
		id = 1
	}
	return id
}

// a1 quotes a worksheet title for use in A1 notation.
func a1(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func isDuplicateSheet(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 400 && strings.Contains(strings.ToLower(gerr.Message), "already exists")
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		line := make([]interface{}, len(r))
		for j, v := range r {
			line[j] = v
		}
		out[i] = line
	}
	return out
}

func fromValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, r := range values {
		line := make([]string, len(r))
		for j, v := range r {
			line[j] = fmt.Sprint(v)
		}
		out[i] = line
	}
	return out
}
