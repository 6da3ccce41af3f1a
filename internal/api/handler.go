package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/tiktr/internal/catalog"
	"github.com/gyaneshwarpardhi/tiktr/internal/config"
	"github.com/gyaneshwarpardhi/tiktr/internal/engine"
	"github.com/gyaneshwarpardhi/tiktr/internal/ledger"
	"github.com/gyaneshwarpardhi/tiktr/internal/listing"
)

const maxFormBytes = 64 << 10

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/events", h.searchEvents)
	h.mux.HandleFunc("GET /v1/events/{id}", h.getEvent)
	h.mux.HandleFunc("POST /v1/events", h.listEvent)
	h.mux.HandleFunc("GET /v1/session", h.session)
	h.mux.HandleFunc("GET /v1/wallets/{address}", h.wallet)
	h.mux.HandleFunc("GET /v1/me", h.me)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return requestID(loggingMiddleware(h.mux))
}

// GET /v1/events?q=&offset=&limit=&prev_q=: one page of catalog search results.
// offset counts results already shown for prev_q (defaults to q); a different
// q restarts from the first page.
func (h *Handler) searchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("offset: %s", err))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit: %s", err))
		return
	}

	query := q.Get("q")
	sess := catalog.SearchSession{Query: query, Offset: offset}
	if q.Has("prev_q") {
		sess.Query = q.Get("prev_q")
	}

	page, err := h.eng.Search(r.Context(), sess, query, limit)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	items := make([]eventView, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, newEventView(e))
	}
	failed := make([]ledger.EventID, 0, len(page.Failed))
	for _, f := range page.Failed {
		failed = append(failed, f.ID)
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:      page.Query,
		Items:      items,
		Total:      page.Total,
		Offset:     page.Offset,
		NextOffset: page.NextOffset,
		HasMore:    page.HasMore,
		FailedIDs:  failed,
	})
}

// GET /v1/events/{id}
func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event id %q", r.PathValue("id")))
		return
	}
	entry, err := h.eng.Event(r.Context(), ledger.EventID(id))
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventView(entry))
}

// POST /v1/events: list a new event from a JSON form.
func (h *Handler) listEvent(w http.ResponseWriter, r *http.Request) {
	var f listing.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	id, err := h.eng.ListEvent(r.Context(), f)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// GET /v1/session: the identity requests act as.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	id, err := h.eng.Connect(r.Context())
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Address: id.Address.Hex(), ReadOnly: id.ReadOnly})
}

// GET /v1/wallets/{address}
func (h *Handler) wallet(w http.ResponseWriter, r *http.Request) {
	addr, err := ledger.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.eng.Wallet(r.Context(), addr)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(res))
}

// GET /v1/me: wallet of the connected identity.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.MyWallet(r.Context())
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWalletView(res))
}

// POST /v1/config/reload: re-read tuning from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapConfig(cfg)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"fetch_workers": cfg.Catalog.FetchWorkers,
		"scan_workers":  cfg.Reconcile.ScanWorkers,
		"max_scan":      cfg.Reconcile.MaxScan,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the ledger does not answer.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return n, nil
}

// writeLedgerError maps domain and ledger errors to a status code.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, listing.ErrInvalidForm), errors.Is(err, listing.ErrInvalidAmount):
		status = http.StatusBadRequest
	case engine.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrReadOnly):
		status = http.StatusForbidden
	}
	if status == http.StatusServiceUnavailable {
		slog.Error("ledger request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "err", err)
	}
	writeError(w, status, err.Error())
}
