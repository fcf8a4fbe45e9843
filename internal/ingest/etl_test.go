package ingest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AngelCh415/jobkpi/internal/config"
	"github.com/AngelCh415/jobkpi/internal/kpi"
	"github.com/AngelCh415/jobkpi/internal/pipeline"
	"github.com/AngelCh415/jobkpi/internal/store"
	"github.com/AngelCh415/jobkpi/internal/utils"
)

func newTestETL(cfg config.Config) (*ETL, *store.SessionStore) {
	st := store.NewSessionStore()
	return NewETL(NewHTTPClient(2*time.Second), st, discardLogger(), cfg, nil), st
}

func TestProcessBothReports(t *testing.T) {
	etl, st := newTestETL(config.Config{})
	ctx := context.Background()

	n, err := etl.Process(ctx, bytes.NewReader(itemsWorkbook(t)), LineItems)
	if err != nil || n != 4 {
		t.Fatalf("line items: n=%d err=%v", n, err)
	}
	if st.Load().Status() != pipeline.StatusPartial {
		t.Fatalf("status after one report = %s", st.Load().Status())
	}

	if _, err := etl.Process(ctx, bytes.NewReader(oppsWorkbook(t)), Opportunities); err != nil {
		t.Fatalf("opportunities: %v", err)
	}
	state := st.Load()
	if state.Status() != pipeline.StatusReady {
		t.Fatalf("status = %s", state.Status())
	}
	if len(state.Merged()) != 3 {
		t.Fatalf("merged = %d", len(state.Merged()))
	}

	k := state.Dashboard(kpi.Filter{Technician: kpi.All, Week: kpi.All}).KPIs
	if k.TotalJobs != 3 || k.WonJobs != 2 || k.WeeklyRevenue != 1500.5 {
		t.Fatalf("kpis = %+v", k)
	}
	if k.HydroJettingJobs != 1 || k.WaterHeaterJobs != 1 || k.DescalingJobs != 1 {
		t.Fatalf("service counts = %+v", k)
	}
	if k.MembershipOpportunities != 2 || k.MembershipsSold != 1 || k.MembershipWinRatePct != 50 {
		t.Fatalf("membership = %+v", k)
	}
}

func TestProcessFailureKeepsPriorData(t *testing.T) {
	etl, st := newTestETL(config.Config{})
	ctx := context.Background()

	if _, err := etl.Process(ctx, bytes.NewReader(oppsWorkbook(t)), Opportunities); err != nil {
		t.Fatalf("opportunities: %v", err)
	}

	bad := xlsx(t, []any{"Job", "Opp. Owner", "Category", "Line Item"}, []any{"J1", "Ana", "Drain", "Snake"})
	_, err := etl.Process(ctx, bytes.NewReader(bad), LineItems)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Missing[0] != "Price" {
		t.Fatalf("expected missing Price, got %v", err)
	}
	state := st.Load()
	if state.Status() != pipeline.StatusError || !strings.Contains(state.Err(), "Price") {
		t.Fatalf("state = %s %q", state.Status(), state.Err())
	}
	if !state.HasOpportunities() {
		t.Fatalf("failed line items upload dropped opportunities")
	}

	_, err = etl.Process(ctx, bytes.NewReader(xlsx(t, itemHeader)), LineItems)
	var nerr *NoDataError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NoDataError, got %v", err)
	}

	if _, err := etl.Process(ctx, bytes.NewReader(itemsWorkbook(t)), LineItems); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if st.Load().Status() != pipeline.StatusReady {
		t.Fatalf("retry did not recover: %s", st.Load().Status())
	}
}

func TestRunFetchesBothReports(t *testing.T) {
	opps, items := oppsWorkbook(t), itemsWorkbook(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/opps.xlsx":
			w.Write(opps)
		case "/items.xlsx":
			w.Write(items)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	etl, st := newTestETL(config.Config{
		OpportunitiesURL: srv.URL + "/opps.xlsx",
		LineItemsURL:     srv.URL + "/items.xlsx",
	})
	if err := etl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Load().Status() != pipeline.StatusReady {
		t.Fatalf("status = %s", st.Load().Status())
	}
}

func TestRunReportsEachFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	etl, st := newTestETL(config.Config{OpportunitiesURL: srv.URL})
	err := etl.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var rerr *FileReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected FileReadError in %v", err)
	}
	if !strings.Contains(err.Error(), "Line items: source url not configured") {
		t.Fatalf("missing line items error: %v", err)
	}
	if st.Load().Status() != pipeline.StatusError {
		t.Fatalf("status = %s", st.Load().Status())
	}
}

func TestFetchWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	data, err := FetchWithRetry(context.Background(), NewHTTPClient(time.Second), srv.URL, utils.NewBackoff(time.Millisecond, 3))
	if err != nil {
		t.Fatalf("FetchWithRetry: %v", err)
	}
	if string(data) != "payload" || calls.Load() != 3 {
		t.Fatalf("data=%q calls=%d", data, calls.Load())
	}
}

func TestFetchHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := FetchWithRetry(context.Background(), NewHTTPClient(time.Second), srv.URL, utils.NewBackoff(time.Millisecond, 1))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestFetchHandlesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := FetchWithRetry(context.Background(), NewHTTPClient(50*time.Millisecond), srv.URL, utils.NewBackoff(time.Millisecond, 0))
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"opportunities": Opportunities, "Line-Items": LineItems, "line_items": LineItems} {
		if got, err := ParseKind(in); err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("invoices"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
