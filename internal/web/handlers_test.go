package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"salestrack/internal/config"
	"salestrack/internal/importer"
	"salestrack/internal/sales"
	"salestrack/internal/store"
)

// fakeStore implements EntryStore in memory.
type fakeStore struct {
	mu      sync.Mutex
	entries []sales.Entry
	failAll bool
}

func (f *fakeStore) InsertMany(ctx context.Context, entries []sales.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return context.DeadlineExceeded
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeStore) List(ctx context.Context) ([]sales.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sales.Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeStore) DeleteAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.entries))
	f.entries = nil
	return n, nil
}

func (f *fakeStore) SummaryByCategory(ctx context.Context) ([]store.SummaryRow, error) {
	return nil, nil
}
func (f *fakeStore) SummaryByBranch(ctx context.Context) ([]store.SummaryRow, error) {
	return nil, nil
}
func (f *fakeStore) SummaryByMonth(ctx context.Context) ([]store.SummaryRow, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 30 * time.Second,
		},
		Import: config.ImportConfig{
			MaxFileSize:      10 * 1024 * 1024,
			BatchSize:        500,
			Timeout:          time.Minute,
			CategoryStrategy: "prefix",
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(st *fakeStore) *Server {
	cfg := testConfig()
	return NewServer(cfg, st, importer.New(st, cfg.Import.BatchSize))
}

// uploadRequest builds a multipart POST with the given file bytes and fields.
func uploadRequest(t *testing.T, filename string, file []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(file); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// sheetBytes builds an in-memory workbook from string rows.
func sheetBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow("Sheet1", cell, &vals); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestHandleImport_HappyPath(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	file := sheetBytes(t, [][]string{
		{"Name", "Product", "Branch", "QTY", "Price", "Date"},
		{"MHB Bar", "P1", "MHB", "2", "100", "5"},
		{"", "", "", "", "", ""},
		{"B", "P2", "", "", "", "10"},
	})

	req := uploadRequest(t, "sales.xlsx", file, map[string]string{"base_date": "2024-03-01"})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Imported != 1 {
		t.Errorf("Imported = %d, want 1", resp.Imported)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "Row 4: Missing branch" {
		t.Errorf("Errors = %v, want [\"Row 4: Missing branch\"]", resp.Errors)
	}
	if resp.Data[0].Date != "2024-03-05" {
		t.Errorf("Date = %q, want 2024-03-05", resp.Data[0].Date)
	}

	if len(st.entries) != 1 {
		t.Errorf("store has %d entries, want 1", len(st.entries))
	}
}

func TestHandleImport_RejectsOversizedFile(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	big := make([]byte, 11*1024*1024)
	req := uploadRequest(t, "big.xlsx", big, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if len(st.entries) != 0 {
		t.Error("no entries should be stored for a rejected file")
	}
}

func TestHandleImport_RejectsWrongExtension(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := uploadRequest(t, "sales.csv", []byte("a,b,c"), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleImport_UnreadableSpreadsheet(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := uploadRequest(t, "broken.xlsx", []byte("not a zip container"), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "spreadsheet") {
		t.Errorf("body = %s, want a spreadsheet decode message", rec.Body.String())
	}
}

func TestHandleImport_StoreFailure(t *testing.T) {
	st := &fakeStore{failAll: true}
	srv := newTestServer(st)

	file := sheetBytes(t, [][]string{
		{"Name", "Product", "Branch", "Date"},
		{"A", "P", "B1", "1"},
	})

	req := uploadRequest(t, "sales.xlsx", file, map[string]string{"base_date": "2024-03-01"})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(rec.Body.String(), "retry") {
		t.Errorf("body = %s, want a retry-suggesting message", rec.Body.String())
	}
}

func TestHandleAddEntry(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(st)

	body := `{"name":"MHB Bar","branch":"MHB","qty":2,"price":100,"date":"2024-03-05"}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var entry sales.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.Amount != 200 {
		t.Errorf("Amount = %v, want 200 (computed)", entry.Amount)
	}
	if entry.Category != "MHB" {
		t.Errorf("Category = %q, want MHB (inferred)", entry.Category)
	}
	if entry.ID == "" {
		t.Error("expected a generated ID")
	}
	if len(st.entries) != 1 {
		t.Errorf("store has %d entries, want 1", len(st.entries))
	}
}

func TestHandleAddEntry_RequiresNameAndBranch(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(`{"name":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleClearEntries(t *testing.T) {
	st := &fakeStore{entries: []sales.Entry{{ID: "1"}, {ID: "2"}}}
	srv := newTestServer(st)

	req := httptest.NewRequest(http.MethodDelete, "/api/entries", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["deleted"] != 2 {
		t.Errorf("deleted = %d, want 2", resp["deleted"])
	}
}

func TestHandleSummary_BadGroupKey(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/summary?by=nonsense", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleImportProgress(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/import/progress", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Active  bool `json:"active"`
		Percent int  `json:"percent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Active {
		t.Error("expected no active import")
	}
}

func TestHandleExport(t *testing.T) {
	st := &fakeStore{entries: []sales.Entry{{
		ID: "1", Date: "2024-03-05", Name: "MHB Bar", Qty: 2,
		Price: 100, Amount: 200, Branch: "MHB",
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}}}
	srv := newTestServer(st)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want a spreadsheet type", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a non-empty workbook body")
	}
}
