package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"salestrack/internal/importer"
	"salestrack/internal/logging"
	"salestrack/internal/parse"
	"salestrack/internal/sales"
	"salestrack/internal/xlsx"
)

// importResponse is the JSON body returned by POST /api/import.
type importResponse struct {
	Success  bool          `json:"success"`
	Imported int           `json:"imported"`
	Data     []sales.Entry `json:"data"`
	Errors   []string      `json:"errors"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleImport accepts an xlsx upload, maps it to validated sales entries,
// and commits them to the store in batches.
//
// Form fields:
//
//	file              the spreadsheet (required)
//	base_date         YYYY-MM-DD reference date for day-of-month resolution
//	                  (default: today)
//	category_strategy "prefix" or "position" (default: configured strategy)
//
// Row-level problems are reported in the response error list, capped at 10;
// file-level and store-level problems fail the request.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	maxSize := s.cfg.Import.MaxFileSize

	// Size guard before parsing. MaxBytesReader backstops clients that lie
	// about Content-Length.
	if r.ContentLength > maxSize {
		writeError(r.Context(), w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %dMB limit", maxSize/(1024*1024)))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		writeError(r.Context(), w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %dMB limit", maxSize/(1024*1024)))
		return
	}

	name := strings.ToLower(header.Filename)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
		writeError(r.Context(), w, http.StatusBadRequest, "only .xlsx and .xls files are accepted")
		return
	}

	baseDate := time.Now()
	if raw := r.FormValue("base_date"); raw != "" {
		baseDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "base_date must be YYYY-MM-DD")
			return
		}
	}

	strategy := s.cfg.Import.CategoryStrategy
	if raw := r.FormValue("category_strategy"); raw != "" {
		strategy = raw
	}

	rows, err := xlsx.Decode(file)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "could not read spreadsheet: "+err.Error())
		return
	}

	ctx := sales.NewContext(baseDate, sales.ExtractorByName(strategy))
	result := sales.MapRows(rows, ctx)

	logger.Info("sheet mapped",
		"file", header.Filename,
		"rows", len(rows),
		"entries", len(result.Data),
		"row_errors", len(result.Errors),
	)

	if !result.Success {
		writeJSON(w, importResponse{
			Success: false,
			Data:    []sales.Entry{},
			Errors:  result.Errors,
		})
		return
	}

	importCtx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	err = s.importer.Run(importCtx, result.Data, func(percent int) {
		logger.Debug("import progress", "percent", percent)
	})
	switch {
	case errors.Is(err, importer.ErrImportInFlight):
		writeError(r.Context(), w, http.StatusConflict, err.Error())
		return
	case err != nil:
		// Batches committed before the failure stay persisted; say so
		// rather than pretending the import never happened.
		logger.Error("import failed part-way", "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError,
			"import failed part-way; records committed before the failure were kept, please retry")
		return
	}

	writeJSON(w, importResponse{
		Success:  true,
		Imported: len(result.Data),
		Data:     result.Data,
		Errors:   result.Errors,
	})
}

// handleImportProgress reports the active import's progress percentage.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"active":  s.importer.Active(),
		"percent": s.importer.Progress(),
	})
}

// handleListEntries returns all stored entries.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to load entries")
		return
	}
	if entries == nil {
		entries = []sales.Entry{}
	}
	writeJSON(w, entries)
}

// addEntryRequest is the JSON body for manual single-entry creation.
type addEntryRequest struct {
	Date            string  `json:"date"`
	UPC             string  `json:"upc"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Qty             int     `json:"qty"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DiscountPercent float64 `json:"discountPercent"`
	Amount          float64 `json:"amount"`
	Branch          string  `json:"branch"`
}

// handleAddEntry creates one entry from a manual form submission. The same
// amount fallback as the import path applies: an explicit non-zero amount
// wins, otherwise price * qty * (1 - discount/100).
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Branch = strings.TrimSpace(req.Branch)
	if req.Name == "" || req.Branch == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "name and branch are required")
		return
	}

	date := time.Now().Format("2006-01-02")
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = req.Date
	}

	qty := req.Qty
	if qty < 1 {
		qty = 1
	}

	amount := req.Amount
	if amount == 0 {
		amount = parse.Round2(req.Price * float64(qty) * (1 - req.DiscountPercent/100))
	}

	category := req.Category
	if category == "" {
		category = sales.ExtractorByName(s.cfg.Import.CategoryStrategy)(req.Name)
	}

	entry := sales.Entry{
		ID:              uuid.NewString(),
		Date:            date,
		UPC:             req.UPC,
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		Qty:             qty,
		Category:        category,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		Amount:          amount,
		Branch:          req.Branch,
		CreatedAt:       time.Now(),
	}

	if err := s.store.InsertMany(r.Context(), []sales.Entry{entry}); err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// handleClearEntries deletes all entries.
func (s *Server) handleClearEntries(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to clear entries")
		return
	}
	writeJSON(w, map[string]int64{"deleted": n})
}

// handleExport streams all entries as an xlsx download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to load entries")
		return
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = e.ExportRow()
	}

	f, err := xlsx.BuildWorkbook("Sales", sales.ExportHeaders, rows)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	buf, err := xlsx.WorkbookBytes(f)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to serialize workbook")
		return
	}

	filename := fmt.Sprintf("sales_export_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

// handleSummary returns aggregated totals grouped by ?by=category|branch|month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var (
		rows any
		err  error
	)

	switch by := r.URL.Query().Get("by"); by {
	case "", "category":
		rows, err = s.store.SummaryByCategory(r.Context())
	case "branch":
		rows, err = s.store.SummaryByBranch(r.Context())
	case "month":
		rows, err = s.store.SummaryByMonth(r.Context())
	default:
		writeError(r.Context(), w, http.StatusBadRequest, "by must be one of: category, branch, month")
		return
	}

	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	writeJSON(w, rows)
}
