// Package replay orchestrates one deterministic replay run: tick source →
// bar aggregator → strategy driver → execution simulator → {WAL, ledger,
// journal} → report.
//
// The runner is strictly sequential. Ticks, bars, intents, and fills are
// processed in one total order with no interleaving; every counter (order
// ids, WAL sequence) is owned by this run's instances, so concurrent
// replays with independent Config values never collide.
package replay

import (
	"context"
	"fmt"
	"log"
	"time"

	"quant-replayv1/internal/bars"
	"quant-replayv1/internal/execution"
	"quant-replayv1/internal/ledger"
	"quant-replayv1/internal/metrics"
	"quant-replayv1/internal/model"
	"quant-replayv1/internal/report"
	"quant-replayv1/internal/rollover"
	"quant-replayv1/internal/strategy"
	"quant-replayv1/internal/ticksource"
	"quant-replayv1/internal/wal"
)

// Config defines one replay run. It is hashed into the report's input
// signature, so every field here is part of "what was asked".
type Config struct {
	DataPath      string          `json:"data_path"`
	MaxTicks      int64           `json:"max_ticks"`
	AccountID     string          `json:"account_id"`
	WALPath       string          `json:"wal_path"`
	Rollover      rollover.Config `json:"rollover"`
	Deterministic bool            `json:"deterministic"`
}

// Broadcaster receives live bar/fill/report payloads during a run.
type Broadcaster interface {
	Broadcast(channel string, payload []byte)
}

// Options are optional run collaborators. Nil fields are skipped.
type Options struct {
	Journal *execution.Journal
	Metrics *metrics.Metrics
	Monitor Broadcaster
}

// signedConfig is the canonical payload for the input signature: the run
// config plus the strategy identity.
type signedConfig struct {
	Config   Config `json:"config"`
	Strategy string `json:"strategy"`
}

// Run executes one replay and returns its report. Input errors (missing
// path, missing column) and WAL IO errors are fatal; ledger invariant
// violations are reported, never thrown.
func Run(ctx context.Context, cfg Config, driver strategy.Driver, opts Options) (*report.Report, error) {
	start := time.Now()

	roll, err := rollover.New(cfg.Rollover)
	if err != nil {
		return nil, err
	}
	source, err := ticksource.Open(cfg.DataPath, cfg.MaxTicks)
	if err != nil {
		return nil, err
	}
	stream, err := source.Stream()
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	walw, err := wal.NewWriter(cfg.WALPath)
	if err != nil {
		return nil, err
	}

	r := &runner{
		cfg:    cfg,
		driver: driver,
		opts:   opts,
		agg:    bars.New(),
		book:   ledger.New(),
		sim:    execution.NewSimulator(cfg.AccountID),
		roll:   roll,
		walw:   walw,
		perf:   report.NewPerfTracker(),

		barsByInstrument: make(map[string]int64),
		closeByInstr:     make(map[string]float64),
	}

	if err := r.consume(ctx, stream); err != nil {
		walw.Close()
		return nil, err
	}
	if err := walw.Close(); err != nil {
		return nil, err
	}

	rep := r.buildReport(stream)
	if opts.Metrics != nil {
		opts.Metrics.RunDuration.Observe(time.Since(start).Seconds())
		opts.Metrics.ViolationsTotal.Add(float64(len(rep.Violations)))
	}
	if opts.Monitor != nil {
		opts.Monitor.Broadcast("report", rep.CompactJSON())
	}
	log.Printf("[replay] done in %s: %d ticks, %d bars, %d intents, %d wal records",
		time.Since(start).Round(time.Millisecond),
		rep.TicksRead, rep.BarsEmitted, rep.IntentsProcessed, rep.WALRecords)
	return rep, nil
}

type runner struct {
	cfg    Config
	driver strategy.Driver
	opts   Options
	agg    *bars.Aggregator
	book   *ledger.Ledger
	sim    *execution.Simulator
	roll   *rollover.Engine
	walw   *wal.Writer
	perf   *report.PerfTracker

	barsEmitted      int64
	intentsProcessed int64
	orderEvents      int64
	rolloverEvents   int64
	rolloverActions  int64
	barsByInstrument map[string]int64
	closeByInstr     map[string]float64
	lastBarTS        int64
}

// consume drives the tick loop. Cancellation is coarse-grained: the loop
// stops between ticks, never mid-record.
func (r *runner) consume(ctx context.Context, stream *ticksource.Stream) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Printf("[replay] cancelled after %d ticks", stream.Count())
			return err
		}
		tick, ok, err := stream.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if r.opts.Metrics != nil {
			r.opts.Metrics.TicksTotal.Inc()
		}
		if bar, done := r.agg.Add(tick); done {
			if err := r.processBatch(ctx, []model.Bar{bar}); err != nil {
				return err
			}
		}
	}

	if tail := r.agg.Flush(); len(tail) > 0 {
		if err := r.processBatch(ctx, tail); err != nil {
			return err
		}
	}
	return nil
}

// processBatch handles the bars finalized by one tick (or the stream
// tail): rollover detection first, then the driver's intents, then a
// state snapshot callback.
func (r *runner) processBatch(ctx context.Context, batch []model.Bar) error {
	for i := range batch {
		bar := &batch[i]
		r.barsEmitted++
		r.barsByInstrument[bar.InstrumentID]++
		r.closeByInstr[bar.InstrumentID] = bar.Close
		r.lastBarTS = bar.TimestampNS
		if r.opts.Metrics != nil {
			r.opts.Metrics.BarsTotal.Inc()
		}
		if r.opts.Monitor != nil {
			r.opts.Monitor.Broadcast("bar", bar.JSON())
		}

		event, ok := r.roll.Observe(*bar, r.book)
		if !ok {
			continue
		}
		r.rolloverEvents++
		if r.opts.Metrics != nil {
			r.opts.Metrics.RolloversTotal.WithLabelValues(string(event.Mode)).Inc()
		}
		for _, action := range event.Actions {
			r.rolloverActions++
			if err := r.appendWAL(wal.FromRolloverAction(event, action)); err != nil {
				return err
			}
		}
	}

	intents := r.driver.OnBar(ctx, batch)
	if err := r.executeIntents(ctx, intents); err != nil {
		return err
	}

	snap := r.snapshot()
	stateIntents := r.driver.OnState(ctx, snap)
	return r.executeIntents(ctx, stateIntents)
}

func (r *runner) executeIntents(ctx context.Context, intents []model.Intent) error {
	for _, intent := range intents {
		if intent.Volume <= 0 {
			log.Printf("[replay] skipping intent with non-positive volume: %+v", intent)
			continue
		}
		if intent.TimestampNS == 0 {
			intent.TimestampNS = r.lastBarTS
		}
		fillPrice := r.fillPrice(intent)

		accepted, filled := r.sim.Execute(intent, fillPrice)
		r.intentsProcessed++
		if r.opts.Metrics != nil {
			r.opts.Metrics.IntentsTotal.Inc()
		}

		if err := r.emitOrderEvent(ctx, accepted); err != nil {
			return err
		}
		r.book.ApplyFill(filled.InstrumentID, intent.SignedVolume(), fillPrice)
		if err := r.emitOrderEvent(ctx, filled); err != nil {
			return err
		}

		if r.opts.Journal != nil {
			if err := r.opts.Journal.RecordFill(intent.StrategyID, filled); err != nil {
				log.Printf("[journal] record fill failed: %v", err)
			}
		}
		if r.opts.Monitor != nil {
			r.opts.Monitor.Broadcast("fill", filled.JSON())
		}
	}
	return nil
}

// emitOrderEvent appends the event to the WAL, tracks performance, and
// forwards it to the driver. WAL failure aborts the run before the
// driver observes the event: an event is either durable or never
// happened.
func (r *runner) emitOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	if err := r.appendWAL(wal.FromOrderEvent(ev)); err != nil {
		return err
	}
	r.orderEvents++
	if r.opts.Metrics != nil {
		r.opts.Metrics.OrderEventsTotal.WithLabelValues(string(ev.Status)).Inc()
	}
	r.perf.ObserveEvent(ev, r.book.TotalRealizedPnL()+r.book.TotalUnrealizedPnL())
	r.driver.OnOrderEvent(ctx, ev)
	return nil
}

func (r *runner) appendWAL(rec wal.Record) error {
	if err := r.walw.Append(rec); err != nil {
		return fmt.Errorf("replay aborted: %w", err)
	}
	if r.opts.Metrics != nil && r.walw.Enabled() {
		r.opts.Metrics.WALRecordsTotal.WithLabelValues(rec.Kind).Inc()
	}
	return nil
}

// fillPrice is the owning bar's close for the intent's instrument; the
// limit price only backstops instruments the stream never barred.
func (r *runner) fillPrice(intent model.Intent) float64 {
	if px, ok := r.closeByInstr[intent.InstrumentID]; ok && px > 0 {
		return px
	}
	return intent.LimitPrice
}

func (r *runner) snapshot() strategy.Snapshot {
	return strategy.Snapshot{
		TimestampNS:   r.lastBarTS,
		Positions:     r.book.Positions(),
		RealizedPnL:   r.book.TotalRealizedPnL(),
		UnrealizedPnL: r.book.TotalUnrealizedPnL(),
	}
}

func (r *runner) buildReport(stream *ticksource.Stream) *report.Report {
	rep := &report.Report{
		TicksRead:            stream.Count(),
		BarsEmitted:          r.barsEmitted,
		IntentsProcessed:     r.intentsProcessed,
		OrderEventsEmitted:   r.orderEvents,
		RolloverEvents:       r.rolloverEvents,
		RolloverActions:      r.rolloverActions,
		RolloverSlippageCost: r.roll.TotalSlippageCost(),
		WALRecords:           r.walw.Count(),
		BarsByInstrument:     r.barsByInstrument,
		Positions:            r.book.Positions(),
		TotalRealizedPnL:     r.book.TotalRealizedPnL(),
		TotalUnrealizedPnL:   r.book.TotalUnrealizedPnL(),
		Violations:           r.book.Validate(),
		InputSignature:       report.ConfigSignature(signedConfig{Config: r.cfg, Strategy: r.driver.Name()}),
		DataSignature:        stream.Signature(),
	}
	if r.cfg.Deterministic {
		rep.Performance = r.perf.Build(rep.TotalRealizedPnL, rep.TotalUnrealizedPnL)
	}
	return rep
}
