package report

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/dbopen"
	"github.com/hivecare/carelog/records"
	"github.com/hivecare/carelog/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	ctx := context.Background()
	asm := records.NewAssembler(catalog.Default())

	saveNote := func(digest, date, author, km, drink string, bm string) {
		msg := &store.Message{SHA256: digest, Subject: "shift note", ContentKind: "text", IngestedAt: time.Now().UnixMilli()}
		if err := st.InsertMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
		pairs := []records.Pair{
			{Label: "date", Value: date},
			{Label: "written by", Value: author},
			{Label: "kilometres walked today", Value: km},
			{Label: "what did the participant drink today", Value: drink},
			{Label: "did will have a bowel movement?", Value: bm},
		}
		rec := asm.Assemble("automated_daily_shift_note", pairs, nil, time.Now())
		if _, err := st.SaveRecord(ctx, msg.ID, rec); err != nil {
			t.Fatal(err)
		}
	}

	saveNote("n1", "2024-03-25", "Jane Doe", "3.0 km", "600ml water and 1 litre juice", "Yes")
	saveNote("n2", "2024-03-25", "Sam Lee", "1.5", "2 glasses of water", "No")
	saveNote("n3", "2024-03-26", "Jane Doe", "4.0", "", "Yes")

	msg := &store.Message{SHA256: "i1", Subject: "incident", ContentKind: "html", IngestedAt: time.Now().UnixMilli()}
	if err := st.InsertMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	rec := asm.Assemble("jotform_incident_notification", []records.Pair{
		{Label: "who is this incident report about", Value: "Will"},
		{Label: "incident management stage", Value: "Near Miss"},
		{Label: "describe the incident/ allegation (please provide all details including names of staff, location of incident (e.g which room in the house or venue), actions by all involved)", Value: "Escalation in the kitchen."},
	}, nil, time.Now())
	if _, err := st.SaveRecord(ctx, msg.ID, rec); err != nil {
		t.Fatal(err)
	}

	return st
}

func testServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := seededStore(t)
	svc := NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

// WHAT: hydration text sums to millilitres, with glasses at 250 ml each.
// WHY: intake is recorded as prose; reporting needs a number.
func TestEstimateHydrationMl(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"600ml water and 1 litre juice", 1600},
		{"2 glasses of water", 500},
		{"1.5 L", 1500},
		{"drank well", 0},
		{"", 0},
		{"3 cups tea, 250 mls water", 1000},
	}
	for _, c := range cases {
		if got := EstimateHydrationMl(c.text); got != c.want {
			t.Errorf("EstimateHydrationMl(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

// WHAT: daily summaries group notes by date and aggregate the metrics.
// WHY: the day view is the main thing staff look at.
func TestDailySummaries(t *testing.T) {
	st := seededStore(t)
	rep := New(st)

	days, err := rep.DailyShiftSummaries(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	d := days[0]
	if d.NoteDate != "2024-03-25" || d.Notes != 2 {
		t.Fatalf("day 0 = %+v", d)
	}
	if d.KilometresWalked != 4.5 {
		t.Fatalf("km = %v", d.KilometresWalked)
	}
	if d.HydrationMl != 2100 {
		t.Fatalf("hydration = %d", d.HydrationMl)
	}
	if d.BMCount != 1 {
		t.Fatalf("bm count = %d", d.BMCount)
	}
}

// WHAT: the stats endpoint reflects the seeded rows.
// WHY: first endpoint an operator checks.
func TestStatsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var stats store.PipelineStats
	getJSON(t, srv.URL+"/api/v1/stats", &stats)
	if stats.MessagesTotal != 4 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.EntitiesComplete != 4 {
		t.Fatalf("entities = %+v", stats)
	}
}

// WHAT: shift-notes honours date bounds from the query string.
// WHY: the UI pages by week.
func TestShiftNotesEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var notes []map[string]any
	getJSON(t, srv.URL+"/api/v1/shift-notes?from=2024-03-26", &notes)
	if len(notes) != 1 {
		t.Fatalf("notes = %v", notes)
	}
	if notes[0]["NoteDate"] != "2024-03-26" {
		t.Fatalf("note = %v", notes[0])
	}
}

// WHAT: the daily summary endpoint returns one element per date.
func TestDailyEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var days []DailyShiftSummary
	getJSON(t, srv.URL+"/api/v1/shift-notes/daily", &days)
	if len(days) != 2 || days[1].NoteDate != "2024-03-26" {
		t.Fatalf("days = %v", days)
	}
}

// WHAT: the incident summary carries stage and template breakdowns.
func TestIncidentSummaryEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var summary IncidentSummary
	getJSON(t, srv.URL+"/api/v1/incidents/summary", &summary)
	if summary.ByStage["Near Miss"] != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

// WHAT: an unknown message ID returns 404, not an empty body.
func TestMessageNotFound(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/messages/msg_nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

// WHAT: ledger filtering by status only returns matching rows.
func TestLedgerEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	var rows []map[string]any
	getJSON(t, srv.URL+"/api/v1/ledger?status=complete", &rows)
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	getJSON(t, srv.URL+"/api/v1/ledger?status=incomplete", &rows)
	if len(rows) != 0 {
		t.Fatalf("rows = %d", len(rows))
	}
}
