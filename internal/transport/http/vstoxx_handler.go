package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/services"
	"vstoxxcli/internal/storage"
	"vstoxxcli/internal/vstoxx"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02"

	headerResultStatus = "X-Result-Status"
	headerRowErrors    = "X-Row-Errors"
)

// RowBody is one observation in a compute request
type RowBody struct {
	Date string         `json:"date" validate:"required,datetime=2006-01-02"`
	V6I1 vstoxx.Reading `json:"v6i1"`
	V6I2 vstoxx.Reading `json:"v6i2"`
	V6I3 vstoxx.Reading `json:"v6i3"`
	V2TX vstoxx.Reading `json:"v2tx"`
}

// ComputeBody is the JSON body of POST /compute
type ComputeBody struct {
	Rows    []RowBody `json:"rows" validate:"required,min=1,max=100000,dive"`
	Mode    string    `json:"mode,omitempty" validate:"omitempty,oneof=fail_fast collect_all"`
	Workers int       `json:"workers,omitempty" validate:"gte=0,lte=64"`
	Persist bool      `json:"persist,omitempty"`
}

// Bind implements render.Binder
func (b *ComputeBody) Bind(r *http.Request) error {
	return nil
}

// computeOptions carries overrides given as query parameters
type computeOptions struct {
	Mode    string `json:"mode" validate:"omitempty,oneof=fail_fast collect_all"`
	Workers int    `json:"workers" validate:"gte=0,lte=64"`
	Persist bool   `json:"persist"`
}

// ComputeResponse is the JSON result of a computation
type ComputeResponse struct {
	Status      string                   `json:"status"`
	Count       int                      `json:"count"`
	Data        []vstoxx.OutputRow       `json:"data"`
	Errors      vstoxx.RowErrors         `json:"errors,omitempty"`
	ErrorCounts map[vstoxx.ErrorKind]int `json:"error_counts,omitempty"`
	Summary     vstoxx.Summary           `json:"summary"`
	Stored      int                      `json:"stored"`
}

// VSTOXXHandler serves index computation and stored history
type VSTOXXHandler struct {
	service      IndexServiceInterface
	results      ResultWriter
	validator    *RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewVSTOXXHandler creates a new index handler
func NewVSTOXXHandler(service IndexServiceInterface, results ResultWriter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *VSTOXXHandler {
	return &VSTOXXHandler{
		service:      service,
		results:      results,
		validator:    NewRequestValidator(),
		logger:       logger.With(slog.String("handler", "vstoxx")),
		errorHandler: errorHandler,
	}
}

// Routes returns the index routes
func (h *VSTOXXHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/compute", h.Compute)
	r.Get("/history", h.History)
	return r
}

// Compute handles POST /api/v1/vstoxx/compute.
//
// The body is either a JSON ComputeBody or a CSV history, in which case mode,
// workers and persist are read from the query string. The result is JSON
// unless the Accept header asks for CSV or XLSX.
func (h *VSTOXXHandler) Compute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		result *services.ComputeResult
		err    error
	)
	if isCSV(r.Header.Get("Content-Type")) {
		opts, optErr := h.parseComputeOptions(r)
		if optErr != nil {
			h.errorHandler.HandleError(w, r, optErr)
			return
		}
		result, err = h.service.ComputeReader(ctx, r.Body, services.ComputeRequest{
			Mode:    vstoxx.Mode(opts.Mode),
			Workers: opts.Workers,
			Persist: opts.Persist,
		})
	} else {
		req, reqErr := h.decodeComputeBody(r)
		if reqErr != nil {
			h.errorHandler.HandleError(w, r, reqErr)
			return
		}
		result, err = h.service.Compute(ctx, req)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "index computed",
		slog.Int("rows", len(result.Rows)),
		slog.Int("failed", len(result.Errors)),
		slog.Int("stored", result.Stored))

	h.respondRows(w, r, result)
}

func (h *VSTOXXHandler) decodeComputeBody(r *http.Request) (services.ComputeRequest, error) {
	var body ComputeBody
	if err := render.Bind(r, &body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ComputeRequest{}, err
		}
		return services.ComputeRequest{}, apierrors.InvalidRequestWithError(err)
	}
	if err := h.validator.ValidateStruct(&body); err != nil {
		return services.ComputeRequest{}, err
	}

	rows := make([]vstoxx.InputRow, len(body.Rows))
	for i, row := range body.Rows {
		// validated above
		date, _ := time.Parse(dateLayout, row.Date)
		rows[i] = vstoxx.InputRow{Date: date, V6I1: row.V6I1, V6I2: row.V6I2, V6I3: row.V6I3, V2TX: row.V2TX}
	}
	return services.ComputeRequest{
		Rows:    rows,
		Mode:    vstoxx.Mode(body.Mode),
		Workers: body.Workers,
		Persist: body.Persist,
	}, nil
}

func (h *VSTOXXHandler) parseComputeOptions(r *http.Request) (computeOptions, error) {
	q := r.URL.Query()
	opts := computeOptions{Mode: q.Get("mode")}

	if v := q.Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apierrors.InvalidParameter("workers", err)
		}
		opts.Workers = n
	}
	if v := q.Get("persist"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apierrors.InvalidParameter("persist", err)
		}
		opts.Persist = b
	}
	return opts, h.validator.ValidateStruct(&opts)
}

func (h *VSTOXXHandler) respondRows(w http.ResponseWriter, r *http.Request, result *services.ComputeResult) {
	accept := r.Header.Get("Accept")
	tabular := strings.Contains(accept, contentTypeCSV) || strings.Contains(accept, contentTypeXLSX)
	if tabular {
		// file bodies carry failed rows in their own section; headers let
		// clients notice without parsing it
		status := "success"
		if len(result.Errors) > 0 {
			status = "partial"
		}
		w.Header().Set(headerResultStatus, status)
		w.Header().Set(headerRowErrors, strconv.Itoa(len(result.Errors)))
	}

	switch {
	case strings.Contains(accept, contentTypeCSV):
		w.Header().Set("Content-Type", contentTypeCSV+"; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="vstoxx.csv"`)
		if err := h.results.WriteCSV(w, result.Rows, result.Errors); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write csv response", slog.String("error", err.Error()))
		}
		return
	case strings.Contains(accept, contentTypeXLSX):
		w.Header().Set("Content-Type", contentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="vstoxx.xlsx"`)
		if err := h.results.WriteXLSX(r.Context(), w, result.Rows, result.Errors); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write xlsx response", slog.String("error", err.Error()))
		}
		return
	}

	response := ComputeResponse{
		Status:  "success",
		Count:   len(result.Rows),
		Data:    result.Rows,
		Summary: result.Summary,
		Stored:  result.Stored,
	}
	if response.Data == nil {
		response.Data = []vstoxx.OutputRow{}
	}
	if len(result.Errors) > 0 {
		response.Status = "partial"
		response.Errors = result.Errors
		response.ErrorCounts = result.Errors.CountByKind()
	}
	render.JSON(w, r, response)
}

// History handles GET /api/v1/vstoxx/history?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *VSTOXXHandler) History(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.History(r.Context(), from, to)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondRows(w, r, &services.ComputeResult{Rows: rows, Summary: vstoxx.Summarize(rows)})
}

func (h *VSTOXXHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrStoreDisabled):
		err = apierrors.NewWithDetails(apierrors.ErrServiceUnavailable.StatusCode, apierrors.ErrServiceUnavailable.ErrorCode,
			"Result persistence is not enabled", err.Error())
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, storage.ErrInvalidInput):
		err = apierrors.InvalidRequestWithError(err)
	}
	h.errorHandler.HandleError(w, r, err)
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, apierrors.InvalidParameter(name, errors.New("parameter is required"))
	}
	date, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, apierrors.InvalidParameter(name, err)
	}
	return date, nil
}

func isCSV(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), contentTypeCSV)
}
