package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AngelCh415/jobkpi/internal/config"
	"github.com/AngelCh415/jobkpi/internal/pipeline"
	"github.com/AngelCh415/jobkpi/internal/store"
	"github.com/AngelCh415/jobkpi/internal/telemetry"
	"github.com/AngelCh415/jobkpi/internal/utils"
)

const retryBase = 200 * time.Millisecond

// ETL turns report payloads into session state.
type ETL struct {
	c       HTTPClient
	st      *store.SessionStore
	log     *slog.Logger
	cfg     config.Config
	schemas Schemas
}

func NewETL(c HTTPClient, st *store.SessionStore, log *slog.Logger, cfg config.Config, schemas Schemas) *ETL {
	if schemas == nil {
		schemas = DefaultSchemas()
	}
	return &ETL{c: c, st: st, log: log, cfg: cfg, schemas: schemas}
}

// Process decodes, normalizes and validates one report of the given kind and
// installs it in the session, re-merging when both reports are loaded. On
// failure the error is recorded in the session and returned; reports loaded
// earlier stay in place. It returns the number of rows accepted.
func (e *ETL) Process(ctx context.Context, r io.Reader, kind Kind) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := e.load(r, kind)
	if err != nil {
		e.st.Update(func(s pipeline.State) pipeline.State { return s.WithError(err) })
		telemetry.ReportsProcessed.WithLabelValues(string(kind), "error").Inc()
		e.log.Warn("report rejected", slog.String("kind", string(kind)), slog.String("err", err.Error()))
		return 0, err
	}

	st := e.st.Load()
	telemetry.ReportsProcessed.WithLabelValues(string(kind), "ok").Inc()
	telemetry.RowsIngested.WithLabelValues(string(kind)).Add(float64(n))
	telemetry.MergedJobs.Set(float64(len(st.Merged())))
	e.log.Info("report loaded",
		slog.String("kind", string(kind)),
		slog.Int("rows", n),
		slog.String("status", string(st.Status())),
		slog.Int("merged_jobs", len(st.Merged())))
	return n, nil
}

func (e *ETL) load(r io.Reader, kind Kind) (int, error) {
	schema, ok := e.schemas[kind]
	if !ok {
		return 0, fmt.Errorf("unknown report kind %q", kind)
	}
	raw, err := ReadWorkbook(r)
	if err != nil {
		return 0, err
	}
	rows := Normalize(raw)
	if err := Validate(rows, schema).Err(kind); err != nil {
		return 0, err
	}

	switch kind {
	case Opportunities:
		recs := ToOpportunities(rows, schema)
		e.st.Update(func(s pipeline.State) pipeline.State { return s.WithOpportunities(recs) })
	case LineItems:
		recs := ToLineItems(rows, schema)
		e.st.Update(func(s pipeline.State) pipeline.State { return s.WithLineItems(recs) })
	}
	return len(rows), nil
}

// Run downloads both configured reports and processes each independently.
// Failures are joined; one report failing does not stop the other.
func (e *ETL) Run(ctx context.Context) error {
	sources := []struct {
		kind Kind
		url  string
	}{
		{Opportunities, e.cfg.OpportunitiesURL},
		{LineItems, e.cfg.LineItemsURL},
	}

	var errs []error
	for _, src := range sources {
		if src.url == "" {
			errs = append(errs, fmt.Errorf("%s: source url not configured", src.kind.Label()))
			continue
		}
		data, err := FetchWithRetry(ctx, e.c, src.url, utils.NewBackoff(retryBase, e.cfg.FetchRetries))
		if err != nil {
			ferr := &FileReadError{Err: err}
			e.st.Update(func(s pipeline.State) pipeline.State { return s.WithError(ferr) })
			telemetry.ReportsProcessed.WithLabelValues(string(src.kind), "error").Inc()
			e.log.Error("report fetch failed", slog.String("kind", string(src.kind)), slog.String("err", err.Error()))
			errs = append(errs, ferr)
			continue
		}
		if _, err := e.Process(ctx, bytes.NewReader(data), src.kind); err != nil {
			errs = append(errs, err)
		}
	}

	e.log.Info("ingest run complete", slog.String("status", string(e.st.Load().Status())))
	return errors.Join(errs...)
}
