package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/jobkpi/internal/ingest"
	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/metrics"
	"github.com/AngelCh415/jobkpi/internal/telemetry"
	"github.com/AngelCh415/jobkpi/internal/utils"
)

func NewRouter(log *slog.Logger, etl *ingest.ETL, mSvc *metrics.Service, maxUpload int64) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(middleware.Recoverer)
	mux.Use(telemetry.Instrument)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/upload/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind, err := ingest.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		body, err := uploadBody(w, r, maxUpload)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		defer body.Close()

		n, err := etl.Process(r.Context(), body, kind)
		if err != nil {
			http.Error(w, err.Error(), uploadStatus(err))
			return
		}
		writeJSON(w, map[string]any{"kind": kind, "rows": n, "status": mSvc.Status().Status})
	})

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		if err := etl.Run(r.Context()); err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		writeJSON(w, mSvc.Status())
	})

	mux.Delete("/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mSvc.Reset())
	})

	mux.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mSvc.Status())
	})

	mux.Put("/filters", func(w http.ResponseWriter, r *http.Request) {
		var f kpi.Filter
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, "bad filter body", 400)
			return
		}
		writeJSON(w, mSvc.SetFilter(f))
	})

	mux.Post("/filters/reset", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mSvc.ResetFilters())
	})

	mux.Get("/kpis", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mSvc.Dashboard(r.URL.Query()))
	})

	mux.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mSvc.Jobs(r.URL.Query()))
	})

	return mux
}

// uploadBody returns the workbook bytes of a request: the "file" part of a
// multipart form, or the raw body otherwise.
func uploadBody(w http.ResponseWriter, r *http.Request, maxUpload int64) (io.ReadCloser, error) {
	if maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return r.Body, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return f, nil
}

func uploadStatus(err error) int {
	var (
		rerr *ingest.FileReadError
		perr *ingest.ParseError
		verr *ingest.ValidationError
		nerr *ingest.NoDataError
	)
	switch {
	case errors.As(err, &rerr):
		return 400
	case errors.As(err, &perr), errors.As(err, &verr), errors.As(err, &nerr):
		return 422
	}
	return 500
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
