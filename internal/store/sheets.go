package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/sheetscribe/internal/config"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsStore implements JobStore on one worksheet of a Google spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetTitle    string
}

// NewSheetsStore wraps an existing Sheets service.
func NewSheetsStore(svc *sheets.Service, spreadsheetID, sheetTitle string) *SheetsStore {
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID, sheetTitle: sheetTitle}
}

// OpenSheets authenticates, locates the spreadsheet (by ID, else by name through
// Drive) and selects the configured worksheet, or the first one.
func OpenSheets(ctx context.Context, cfg config.StoreConfig) (*SheetsStore, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating sheets service: %v", ErrUnauthorized, err)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		id, err = lookupSpreadsheetID(ctx, cfg.SpreadsheetName, opts...)
		if err != nil {
			return nil, err
		}
	}

	title, err := worksheetTitle(ctx, svc, id, cfg.Worksheet)
	if err != nil {
		return nil, err
	}

	return NewSheetsStore(svc, id, title), nil
}

func clientOptions(ctx context.Context, cfg config.StoreConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
		}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

func lookupSpreadsheetID(ctx context.Context, name string, opts ...option.ClientOption) (string, error) {
	drv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: creating drive service: %v", ErrUnauthorized, err)
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)
	list, err := drv.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyAPIError("lookup spreadsheet", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: no spreadsheet named %q", ErrStoreNotFound, name)
	}
	return list.Files[0].Id, nil
}

func worksheetTitle(ctx context.Context, svc *sheets.Service, spreadsheetID, want string) (string, error) {
	ss, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyAPIError("open spreadsheet", err)
	}
	if len(ss.Sheets) == 0 {
		return "", fmt.Errorf("%w: spreadsheet %s has no worksheets", ErrStoreNotFound, spreadsheetID)
	}
	if want == "" {
		return ss.Sheets[0].Properties.Title, nil
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == want {
			return want, nil
		}
	}
	return "", fmt.Errorf("%w: worksheet %q", ErrStoreNotFound, want)
}

func (s *SheetsStore) StoreID() string {
	return s.spreadsheetID + "/" + s.sheetTitle
}

// Ping checks that the spreadsheet is still reachable.
func (s *SheetsStore) Ping(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return classifyAPIError("ping spreadsheet", err)
	}
	return nil
}

// FindRowByMarker scans the status column top to bottom.
func (s *SheetsStore) FindRowByMarker(ctx context.Context, marker string) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, columnRange(s.sheetTitle, models.ColumnStatus)).
		Context(ctx).
		Do()
	if err != nil {
		return 0, classifyAPIError("find row by marker", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == marker {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

func (s *SheetsStore) ReadCell(ctx context.Context, row, column int) (string, error) {
	if err := validateColumn(column); err != nil {
		return "", err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, cellRef(s.sheetTitle, row, column)).
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyAPIError("read cell", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

func (s *SheetsStore) WriteCell(ctx context.Context, row, column int, value string) error {
	if err := validateColumn(column); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, cellRef(s.sheetTitle, row, column), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classifyAPIError("write cell", err)
	}
	return nil
}

// WriteCells sends one values:batchUpdate, which Sheets applies atomically.
func (s *SheetsStore) WriteCells(ctx context.Context, row int, values map[int]string) error {
	cols, err := sortedColumns(values)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, c := range cols {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  cellRef(s.sheetTitle, row, c),
			Values: [][]interface{}{{values[c]}},
		})
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classifyAPIError("write cells", err)
	}
	return nil
}

func (s *SheetsStore) AppendRow(ctx context.Context, topic, status string) (int, error) {
	rng := fmt.Sprintf("%s!A:B", quoteSheet(s.sheetTitle))
	vr := &sheets.ValueRange{Values: [][]interface{}{{topic, status}}}
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, classifyAPIError("append row", err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append row: response has no update range")
	}
	return rowFromRange(resp.Updates.UpdatedRange)
}

// classifyAPIError maps Google API status codes onto store sentinels.
func classifyAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, ErrStoreNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// --- A1 notation ---

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnLetter converts a 1-based column index to its A1 letters (1 → A, 27 → AA).
func columnLetter(column int) string {
	var b []byte
	for column > 0 {
		column--
		b = append([]byte{byte('A' + column%26)}, b...)
		column /= 26
	}
	return string(b)
}

func cellRef(title string, row, column int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(title), columnLetter(column), row)
}

func columnRange(title string, column int) string {
	l := columnLetter(column)
	return fmt.Sprintf("%s!%s:%s", quoteSheet(title), l, l)
}

// rowFromRange extracts the first row number of an A1 range such as 'Sheet1'!A7:B7.
func rowFromRange(rng string) (int, error) {
	ref := rng
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("parsing row from range %q: %w", rng, err)
	}
	return row, nil
}

var (
	_ JobStore   = (*SheetsStore)(nil)
	_ Pinger     = (*SheetsStore)(nil)
	_ Enqueuer   = (*SheetsStore)(nil)
	_ Identified = (*SheetsStore)(nil)
)
