package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xuri/excelize/v2"

	"github.com/avdeyev/parish-ledger/internal/domain/inventory"
)

// Read-only surface: health, metrics, valuation and report downloads.
// All writes go through the domain services, not HTTP.

type ValuationSource interface {
	Valuation(ctx context.Context, number string) (inventory.Valuation, error)
}

type ReportSource interface {
	StockValuation(ctx context.Context) (*excelize.File, error)
	Contributions(ctx context.Context, from, to time.Time) (*excelize.File, error)
}

type Server struct {
	srv *http.Server
}

func New(addr string, exposeMetrics bool, inv ValuationSource, reports ReportSource) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if inv != nil {
		mux.HandleFunc("/inventory/valuation", func(w http.ResponseWriter, r *http.Request) {
			number := r.URL.Query().Get("item")
			if number == "" {
				http.Error(w, "item query parameter required", http.StatusBadRequest)
				return
			}
			v, err := inv.Valuation(r.Context(), number)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		})
	}

	if reports != nil {
		mux.HandleFunc("/reports/stock.xlsx", func(w http.ResponseWriter, r *http.Request) {
			f, err := reports.StockValuation(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeXLSX(w, f, "stock.xlsx")
		})
		mux.HandleFunc("/reports/contributions.xlsx", func(w http.ResponseWriter, r *http.Request) {
			from, to := parseRange(r)
			f, err := reports.Contributions(r.Context(), from, to)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeXLSX(w, f, "contributions.xlsx")
		})
	}

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// parseRange reads from/to dates (YYYY-MM-DD), defaulting to the
// current calendar month.
func parseRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	if s := r.URL.Query().Get("from"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			from = t
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			to = t
		}
	}
	return from, to
}

func writeXLSX(w http.ResponseWriter, f *excelize.File, name string) {
	defer func() { _ = f.Close() }()
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
