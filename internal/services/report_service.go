package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"salesops/internal/cache"
	"salesops/internal/config"
	"salesops/internal/core"
	"salesops/internal/kpi"
	"salesops/internal/log"
	"salesops/internal/metrics"
	"salesops/internal/store"
)

const reportCacheSize = 256

// TargetsSource supplies the current sales targets and roster.
type TargetsSource interface {
	Targets() config.Targets
}

type (
	Row struct {
		Label   string `json:"label"`
		Display string `json:"display"`
		kpi.Metrics
		AverageQuoteValue float64       `json:"averageQuoteValue"`
		Target            *kpi.Progress `json:"target,omitempty"`
	}

	Report struct {
		Dimension    Dimension  `json:"dimension"`
		Period       string     `json:"period"`
		Window       kpi.Window `json:"window"`
		Rows         []Row      `json:"rows"`
		Totals       kpi.Totals `json:"totals"`
		TopPerformer string     `json:"topPerformer,omitempty"`
		GeneratedAt  time.Time  `json:"generatedAt"`
	}

	CrossTabReport struct {
		Period string     `json:"period"`
		Window kpi.Window `json:"window"`
		kpi.CrossTab
		ColumnLabels map[string]string `json:"columnLabels"`
	}

	DashboardStats struct {
		Window           kpi.Window   `json:"window"`
		SalesOrdersValue float64      `json:"salesOrdersValue"`
		QuotationsValue  float64      `json:"quotationsValue"`
		ConversionRate   float64      `json:"conversionRate"`
		CSICount         int          `json:"csiCount"`
		Target           kpi.Progress `json:"target"`
		Representatives  []string     `json:"representatives"`
	}

	BannerSlide struct {
		Title             string     `json:"title"`
		Window            kpi.Window `json:"window"`
		Totals            kpi.Totals `json:"totals"`
		CGICount          int        `json:"cgiCount"`
		TopRepresentative string     `json:"topRepresentative,omitempty"`
		TopOrderValue     float64    `json:"topOrderValue"`
	}

	Banner struct {
		Slides          []BannerSlide `json:"slides"`
		Representatives []string      `json:"representatives"`
		GeneratedAt     time.Time     `json:"generatedAt"`
	}
)

// ReportService computes KPI reports from snapshots of the event log.
// Reports are cached until Invalidate is called or their TTL passes, and
// concurrent snapshot loads share a single store read.
type ReportService struct {
	events  store.EventReader
	targets TargetsSource
	logger  *log.Logger
	now     func() time.Time
	cache   *cache.LRUCache[Report]
	loads   singleflight.Group
}

func NewReportService(events store.EventReader, targets TargetsSource, cacheTTL time.Duration, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentReports)
	}
	return &ReportService{
		events:  events,
		targets: targets,
		logger:  logger.WithComponent(log.ComponentReports),
		now:     time.Now,
		cache:   cache.NewLRUCache[Report](reportCacheSize, cacheTTL),
	}
}

// SetClock replaces the clock used for "now". For tests and replays.
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// Cache exposes the report cache so it can be registered for cleanup.
func (s *ReportService) Cache() *cache.LRUCache[Report] {
	return s.cache
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate() {
	s.cache.Purge()
}

func (s *ReportService) currentTargets() config.Targets {
	if s.targets == nil {
		return config.DefaultTargets()
	}
	return s.targets.Targets()
}

// Report aggregates the events selected by q along q.Dimension.
func (s *ReportService) Report(ctx context.Context, q ReportQuery) (Report, error) {
	if q.Dimension == "" {
		q.Dimension = DimensionOverall
	}
	if _, err := ParseDimension(string(q.Dimension)); err != nil {
		return Report{}, err
	}
	window, period, err := q.window(s.now())
	if err != nil {
		return Report{}, err
	}

	key := fmt.Sprintf("%s|%s|%s|%s|%t", q.Dimension, period,
		window.Start.Format(time.RFC3339Nano), window.End.Format(time.RFC3339Nano), q.Roster)
	if r, ok := s.cache.Get(key); ok {
		metrics.ReportCacheLookups.WithLabelValues(metrics.CacheResult(true)).Inc()
		return r, nil
	}
	metrics.ReportCacheLookups.WithLabelValues(metrics.CacheResult(false)).Inc()

	gen := s.cache.Generation()
	events, err := s.snapshot(ctx, gen)
	if err != nil {
		return Report{}, err
	}

	var opts []kpi.Option
	if q.Roster {
		opts = append(opts, kpi.WithKnownLabels(s.roster(q.Dimension)...))
	}

	start := time.Now()
	result := kpi.Aggregate(events, window, q.Dimension.GroupBy(), opts...)
	elapsed := time.Since(start)
	metrics.AggregationDuration.WithLabelValues(string(q.Dimension)).Observe(float64(elapsed.Microseconds()) / 1000)
	metrics.AggregationsTotal.WithLabelValues(string(q.Dimension)).Inc()

	r := Report{
		Dimension:   q.Dimension,
		Period:      period,
		Window:      window,
		Rows:        rows(q.Dimension, result),
		Totals:      kpi.Summarize(result),
		GeneratedAt: s.now(),
	}
	if q.Dimension == DimensionLineOfWork {
		s.attachTargets(r.Rows, period)
	}
	if label, m, ok := result.Top(kpi.MetricOrderValue); ok && m.OrderValue > 0 {
		r.TopPerformer = q.Dimension.Display(label)
	}

	s.cache.SetIfGeneration(gen, key, r)
	s.logger.DebugContext(ctx, "Report computed",
		log.NewFields().WithReport(string(q.Dimension), period, window.String()).ToSlice()...)
	return r, nil
}

// CrossTab breaks the selected events down by representative and line of work.
func (s *ReportService) CrossTab(ctx context.Context, q ReportQuery) (CrossTabReport, error) {
	window, period, err := q.window(s.now())
	if err != nil {
		return CrossTabReport{}, err
	}
	events, err := s.snapshot(ctx, s.cache.Generation())
	if err != nil {
		return CrossTabReport{}, err
	}

	var opts []kpi.Option
	if q.Roster {
		opts = append(opts, kpi.WithKnownLabels(s.currentTargets().Representatives...))
	}
	ct := kpi.BuildCrossTab(events, window, kpi.ByRepresentative, kpi.ByLineOfWork, opts...)

	labels := make(map[string]string, len(ct.Columns))
	for _, c := range ct.Columns {
		labels[c] = core.LineOfWorkLabel(c)
	}
	return CrossTabReport{Period: period, Window: window, CrossTab: ct, ColumnLabels: labels}, nil
}

// DashboardStats summarizes the month containing ref against the monthly
// target. A zero ref means now.
func (s *ReportService) DashboardStats(ctx context.Context, ref time.Time) (DashboardStats, error) {
	if ref.IsZero() {
		ref = s.now()
	}
	events, err := s.snapshot(ctx, s.cache.Generation())
	if err != nil {
		return DashboardStats{}, err
	}

	window := kpi.ResolveWindow(kpi.Month, ref)
	totals := kpi.Summarize(kpi.Aggregate(events, window, kpi.NoGrouping))
	targets := s.currentTargets()

	return DashboardStats{
		Window:           window,
		SalesOrdersValue: totals.TotalOrderValue,
		QuotationsValue:  totals.TotalQuoteValue,
		ConversionRate:   totals.OverallConversion,
		CSICount:         max(1, kpi.CountEvents(events, window, "")),
		Target:           kpi.TargetProgress(totals.TotalOrderValue, targets.TargetFor(1)),
		Representatives:  namedRepresentatives(kpi.DistinctRepresentatives(events, window)),
	}, nil
}

// Banner computes the rolling summaries shown on the dashboard banner. The
// slides are computed concurrently from one snapshot.
func (s *ReportService) Banner(ctx context.Context) (Banner, error) {
	events, err := s.snapshot(ctx, s.cache.Generation())
	if err != nil {
		return Banner{}, err
	}
	now := s.now()

	windows := []struct {
		title  string
		window kpi.Window
	}{
		{"Last 7 days", kpi.LastDays(7, now)},
		{"Last 30 days", kpi.LastDays(30, now)},
		{"This quarter", kpi.ResolveWindow(kpi.Quarter, now)},
		{"This year", kpi.ResolveWindow(kpi.Year, now)},
	}

	slides := make([]BannerSlide, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			byRep := kpi.Aggregate(events, w.window, kpi.ByRepresentative)
			slide := BannerSlide{
				Title:    w.title,
				Window:   w.window,
				Totals:   kpi.Summarize(byRep),
				CGICount: kpi.CountEvents(events, w.window, core.EventCGI),
			}
			if label, m, ok := byRep.Top(kpi.MetricOrderValue); ok && m.OrderValue > 0 {
				slide.TopRepresentative, slide.TopOrderValue = label, m.OrderValue
			}
			slides[i] = slide
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Banner{}, err
	}

	return Banner{
		Slides:          slides,
		Representatives: s.currentTargets().Representatives,
		GeneratedAt:     now,
	}, nil
}

// snapshot loads the event log. Callers that read the same cache generation
// share one store read; a purge starts a fresh one. The shared read outlives
// any single caller, and each caller stops waiting when its own ctx is done.
func (s *ReportService) snapshot(ctx context.Context, gen uint64) ([]core.Event, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(fmt.Sprintf("events|%d", gen), func() (any, error) {
		return s.events.ListEvents(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load events: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load events: %w", res.Err)
		}
		return res.Val.([]core.Event), nil
	}
}

// Months covered by the calendar periods that carry a line-of-work target.
var periodMonths = map[string]int{
	string(kpi.Month):   1,
	string(kpi.Quarter): 3,
	string(kpi.Year):    12,
}

// attachTargets sets target progress on line-of-work rows that have a
// configured monthly target, scaled to the report period.
func (s *ReportService) attachTargets(rows []Row, period string) {
	months := periodMonths[period]
	if months == 0 {
		return
	}
	targets := s.currentTargets()
	for i := range rows {
		target, ok := targets.LineOfWorkTargetFor(rows[i].Label, months)
		if !ok {
			continue
		}
		p := kpi.TargetProgress(rows[i].OrderValue, target)
		rows[i].Target = &p
	}
}

// namedRepresentatives drops the placeholder label given to events without
// a representative.
func namedRepresentatives(reps []string) []string {
	out := make([]string, 0, len(reps))
	for _, r := range reps {
		if r != core.Unknown {
			out = append(out, r)
		}
	}
	return out
}

func (s *ReportService) roster(d Dimension) []string {
	switch d {
	case DimensionRepresentative:
		return s.currentTargets().Representatives
	case DimensionLineOfWork:
		return core.LinesOfWork()
	}
	return []string{kpi.AllLabel}
}

func rows(d Dimension, r kpi.Result) []Row {
	out := make([]Row, 0, len(r))
	for _, label := range r.Labels() {
		m := r[label]
		out = append(out, Row{
			Label:             label,
			Display:           d.Display(label),
			Metrics:           m,
			AverageQuoteValue: m.AverageQuoteValue(),
		})
	}
	// Highest order value first; Labels already broke ties alphabetically.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderValue > out[j].OrderValue
	})
	return out
}
