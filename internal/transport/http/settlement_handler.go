package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/settlement"
)

// CalendarResponse lists the settlement dates of a range
type CalendarResponse struct {
	From  time.Time   `json:"from"`
	To    time.Time   `json:"to"`
	Count int         `json:"count"`
	Data  []time.Time `json:"data"`
}

// SettlementHandler exposes the settlement date resolver
type SettlementHandler struct {
	service      IndexServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(service IndexServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SettlementHandler {
	return &SettlementHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "settlement")),
		errorHandler: errorHandler,
	}
}

// Routes returns the settlement routes
func (h *SettlementHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Resolve)
	r.Get("/{date}", h.ResolveDate)
	return r
}

// Resolve handles GET /api/v1/settlements?date=YYYY-MM-DD and
// GET /api/v1/settlements?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *SettlementHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("date") == "" && (q.Get("from") != "" || q.Get("to") != "") {
		h.calendar(w, r)
		return
	}

	date, err := parseDateParam(r, "date")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.resolve(w, r, date)
}

// ResolveDate handles GET /api/v1/settlements/{date}
func (h *SettlementHandler) ResolveDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("date", err))
		return
	}
	h.resolve(w, r, date)
}

func (h *SettlementHandler) resolve(w http.ResponseWriter, r *http.Request, date time.Time) {
	dates, err := h.service.Settlements(date)
	if err != nil {
		h.handleResolverError(w, r, "date", err)
		return
	}
	render.JSON(w, r, dates)
}

func (h *SettlementHandler) calendar(w http.ResponseWriter, r *http.Request) {
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

	dates, err := h.service.SettlementCalendar(from, to)
	if err != nil {
		h.handleResolverError(w, r, "to", err)
		return
	}
	if dates == nil {
		dates = []time.Time{}
	}

	h.logger.DebugContext(r.Context(), "settlement calendar",
		slog.String("from", from.Format(dateLayout)),
		slog.String("to", to.Format(dateLayout)),
		slog.Int("count", len(dates)))

	render.JSON(w, r, CalendarResponse{From: from, To: to, Count: len(dates), Data: dates})
}

func (h *SettlementHandler) handleResolverError(w http.ResponseWriter, r *http.Request, param string, err error) {
	if errors.Is(err, settlement.ErrInvalidDate) {
		err = apierrors.InvalidParameter(param, err)
	}
	h.errorHandler.HandleError(w, r, err)
}
