// Package report assembles and persists the per-run summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minsukang/momentum-trader/internal/domain"
)

// RunReport is the full record of one engine run, written as JSON next
// to the execution log.
type RunReport struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	AsOf      time.Time `json:"as_of"`
	DryRun    bool      `json:"dry_run"`
	Success   bool      `json:"success"`
	Selected  []Pick    `json:"selected"`
	Targets   []Target  `json:"targets"`
	Orders    []Order   `json:"orders"`
	Skipped   []string  `json:"skipped,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Pick is one selected instrument with its ranking signals.
type Pick struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	TotalReturn     float64 `json:"total_return,omitempty"`
	Momentum        float64 `json:"momentum,omitempty"`
	FIP             float64 `json:"fip,omitempty"`
	DailyVolatility float64 `json:"daily_volatility,omitempty"`
	DailySkewness   float64 `json:"daily_skewness,omitempty"`
}

// Target is one sized allocation.
type Target struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	ReferencePrice int64  `json:"reference_price"`
}

// Order mirrors domain.OrderResult in the report's JSON shape.
type Order struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price,omitempty"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// New starts a report for a run.
func New(mode string, asOf time.Time, dryRun bool) *RunReport {
	return &RunReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		AsOf:      asOf,
		DryRun:    dryRun,
		CreatedAt: time.Now(),
	}
}

// AddTargets records the sized allocations.
func (r *RunReport) AddTargets(targets []domain.TargetAllocation) {
	for _, t := range targets {
		r.Targets = append(r.Targets, Target{
			Code:           t.Code,
			Name:           t.Name,
			Quantity:       t.Quantity,
			ReferencePrice: t.ReferencePrice,
		})
	}
}

// AddOrders records the execution outcomes.
func (r *RunReport) AddOrders(orders []domain.OrderResult) {
	for _, o := range orders {
		r.Orders = append(r.Orders, Order{
			Code:     o.Code,
			Name:     o.Name,
			Side:     string(o.Side),
			Quantity: o.RequestedQty,
			Price:    o.Price,
			Status:   string(o.Status),
			Attempts: o.Attempts,
			Error:    o.Error,
		})
	}
}

// Writer persists reports to a directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.With().Str("service", "report").Logger(),
	}
}

// Write saves the report as pretty-printed JSON. Failures are warnings;
// a lost report never fails a run.
func (w *Writer) Write(r *RunReport) string {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.log.Warn().Err(err).Str("dir", w.dir).Msg("Failed to create report directory")
		return ""
	}

	name := fmt.Sprintf("%s_%s_%s.json", r.AsOf.Format("20060102"), r.Mode, r.RunID[:8])
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to marshal report")
		return ""
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("Failed to write report")
		return ""
	}

	w.log.Info().Str("path", path).Str("run_id", r.RunID).Msg("Report written")
	return path
}
