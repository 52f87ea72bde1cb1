// Package report computes read-side summaries over extracted entities and
// serves them over HTTP. It never writes to the store.
package report

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hivecare/carelog/store"
)

// Reporter runs aggregate queries against the store.
type Reporter struct {
	store *store.Store
}

// New creates a Reporter.
func New(st *store.Store) *Reporter {
	return &Reporter{store: st}
}

// DailyShiftSummary aggregates the shift notes of one calendar day.
type DailyShiftSummary struct {
	NoteDate         string  `json:"note_date"`
	DayOfWeek        string  `json:"day_of_week"`
	Notes            int     `json:"notes"`
	Incomplete       int     `json:"incomplete"`
	KilometresWalked float64 `json:"kilometres_walked"`
	HydrationMl      int     `json:"hydration_ml"`
	BMCount          int     `json:"bm_count"`
}

// DailyShiftSummaries groups shift notes by note date, oldest first. Empty
// bounds are open on that side.
func (r *Reporter) DailyShiftSummaries(ctx context.Context, from, to string) ([]*DailyShiftSummary, error) {
	notes, err := r.store.ListShiftNotes(ctx, from, to, 10000)
	if err != nil {
		return nil, err
	}

	var out []*DailyShiftSummary
	byDate := map[string]*DailyShiftSummary{}
	for _, n := range notes {
		day, ok := byDate[n.NoteDate]
		if !ok {
			day = &DailyShiftSummary{NoteDate: n.NoteDate, DayOfWeek: n.DayOfWeek}
			byDate[n.NoteDate] = day
			out = append(out, day)
		}
		day.Notes++
		if n.Incomplete {
			day.Incomplete++
		}
		if n.KilometresWalked.Valid {
			day.KilometresWalked += n.KilometresWalked.Float64
		}
		day.HydrationMl += EstimateHydrationMl(n.HydrationIntake)
		if n.BMOccurred.Valid && n.BMOccurred.Bool {
			day.BMCount++
		}
	}
	return out, nil
}

// IncidentSummary collects incident and investigation breakdowns alongside
// per-template message counts.
type IncidentSummary struct {
	ByStage               map[string]int `json:"by_stage"`
	ByInvestigationStatus map[string]int `json:"by_investigation_status"`
	ByTemplate            map[string]int `json:"by_template"`
}

// IncidentBreakdown returns the incident-side counters.
func (r *Reporter) IncidentBreakdown(ctx context.Context) (*IncidentSummary, error) {
	stages, err := r.store.IncidentStageCounts(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := r.store.InvestigationStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := r.store.TemplateCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &IncidentSummary{
		ByStage:               stages,
		ByInvestigationStatus: statuses,
		ByTemplate:            templates,
	}, nil
}

// volumePattern matches quantities like "600ml", "1.5 L", "2 litres",
// "3 glasses", "2 cups" anywhere in free text.
var volumePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(ml|mls|millilitres?|l|litres?|liters?|glasses?|glass|cups?)\b`)

// EstimateHydrationMl sums the volumes mentioned in a free-text hydration
// description. Glasses and cups count as 250 ml. Text with no recognizable
// quantity yields zero.
func EstimateHydrationMl(text string) int {
	total := 0.0
	for _, m := range volumePattern.FindAllStringSubmatch(text, -1) {
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		switch unit := strings.ToLower(m[2]); {
		case strings.HasPrefix(unit, "ml") || strings.HasPrefix(unit, "milli"):
			total += qty
		case strings.HasPrefix(unit, "l"):
			total += qty * 1000
		default: // glasses, cups
			total += qty * 250
		}
	}
	return int(total)
}
