package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"solana-sandwich-watch/internal/emitter"
	"solana-sandwich-watch/internal/ingest"
	"solana-sandwich-watch/internal/observability"
	"solana-sandwich-watch/internal/solana"
)

// DefaultWorkers bounds concurrent block processing when unset.
const DefaultWorkers = 8

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source   ingest.BlockSource
	Detector *Detector
	Emitter  *emitter.Emitter
	Logger   *zap.Logger
	Metrics  *observability.Metrics

	// Workers bounds concurrent block fetches and detection passes.
	Workers int
	// ReorderWindow bounds blocks finished ahead of the slowest outstanding one.
	ReorderWindow int
}

// Runner drives detection over a slot sequence. Blocks are fetched and
// processed concurrently; attacks are emitted strictly in slot order.
type Runner struct {
	source   ingest.BlockSource
	detector *Detector
	emitter  *emitter.Emitter
	logger   *zap.Logger
	metrics  *observability.Metrics
	workers  int
	window   int
}

// NewRunner creates a new Runner with the provided components.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	window := opts.ReorderWindow
	if window <= 0 {
		window = DefaultReorderWindow
	}
	return &Runner{
		source:   opts.Source,
		detector: opts.Detector,
		emitter:  opts.Emitter,
		logger:   logger,
		metrics:  opts.Metrics,
		workers:  workers,
		window:   window,
	}
}

// RunStats aggregates what a run produced.
type RunStats struct {
	Blocks          uint64
	SkippedSlots    uint64
	FetchFailures   uint64
	Swaps           uint64
	Attacks         uint64
	UnknownPrograms uint64
	DecodeErrors    uint64
	EmitErrors      uint64
}

// RunRange processes every slot in [from, to] inclusive. When some blocks
// could not be fetched the remaining slots are still processed, and the run
// returns an error alongside the stats so the gap can be reprocessed.
func (r *Runner) RunRange(ctx context.Context, from, to uint64) (*RunStats, error) {
	if to < from {
		return nil, errors.New("invalid slot range")
	}

	slots := make(chan uint64)
	go func() {
		defer close(slots)
		for slot := from; slot <= to; slot++ {
			select {
			case slots <- slot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return r.run(ctx, slots)
}

// RunLive processes slots as the stream announces them, until the stream
// closes or ctx is canceled.
func (r *Runner) RunLive(ctx context.Context, stream ingest.SlotStream) (*RunStats, error) {
	slots, err := stream.Slots(ctx)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, slots)
}

func (r *Runner) run(ctx context.Context, slots <-chan uint64) (*RunStats, error) {
	buf := NewReorderBuffer(r.window)
	pool := pond.NewPool(r.workers, pond.WithQueueSize(r.workers*2))
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	stats := &RunStats{}
	consumerDone := make(chan struct{})
	var consumerErr error

	go func() {
		defer close(consumerDone)
		for {
			res, err := buf.Pop(groupCtx)
			if err != nil {
				if !errors.Is(err, ErrBufferClosed) {
					consumerErr = err
				}
				return
			}
			r.consume(groupCtx, res, stats)
			if r.metrics != nil {
				r.metrics.ReorderBufferSize.Set(float64(buf.Len()))
			}
		}
	}()

	var seq uint64
	scheduled := 0
	for slot := range slots {
		if groupCtx.Err() != nil {
			break
		}
		slot, mySeq := slot, seq
		seq++
		scheduled++
		if r.metrics != nil {
			r.metrics.HighestSlotSeen.Set(float64(slot))
		}

		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			res := r.processSlot(groupCtx, slot)
			if err := buf.Put(groupCtx, mySeq, res); err != nil {
				r.logger.Warn("dropping block result",
					zap.Uint64("slot", slot),
					zap.Error(err),
				)
			}
		})
	}

	err := group.Wait()
	buf.Close()
	<-consumerDone
	pool.StopAndWait()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return stats, err
	}
	if consumerErr != nil && !errors.Is(consumerErr, context.Canceled) {
		return stats, consumerErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats, ctxErr
	}
	if stats.FetchFailures > 0 {
		return stats, fmt.Errorf("failed to fetch %d of %d slots", stats.FetchFailures, scheduled)
	}

	r.logger.Info("run finished",
		zap.Int("slots_scheduled", scheduled),
		zap.Uint64("blocks", stats.Blocks),
		zap.Uint64("skipped_slots", stats.SkippedSlots),
		zap.Uint64("attacks", stats.Attacks),
	)
	return stats, nil
}

// processSlot fetches and runs detection for one slot. Skipped slots yield a
// skipped result and fetch failures a failed one; both keep the emission
// sequence advancing.
func (r *Runner) processSlot(ctx context.Context, slot uint64) *BlockResult {
	start := time.Now()

	block, err := r.source.Fetch(ctx, slot)
	if r.metrics != nil {
		r.metrics.RPCCallLatency.WithLabelValues("getBlock").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, solana.ErrSlotSkipped) {
			return &BlockResult{Slot: slot, Skipped: true}
		}
		if r.metrics != nil {
			r.metrics.RPCCallErrors.WithLabelValues("getBlock").Inc()
		}
		r.logger.Error("block fetch failed",
			zap.Uint64("slot", slot),
			zap.Error(err),
		)
		return &BlockResult{Slot: slot, FetchErr: err}
	}

	start = time.Now()

	res := r.detector.ProcessBlock(block)
	if r.metrics != nil {
		r.metrics.BlockProcessingLatency.Observe(time.Since(start).Seconds())
	}
	return res
}

// consume emits one block's attacks in slot order and folds its counters
// into the run stats.
func (r *Runner) consume(ctx context.Context, res *BlockResult, stats *RunStats) {
	if res.FetchErr != nil {
		stats.FetchFailures++
		return
	}
	if res.Skipped {
		stats.SkippedSlots++
		return
	}

	stats.Blocks++
	stats.Swaps += uint64(res.Swaps)
	stats.UnknownPrograms += uint64(res.UnknownPrograms)
	for _, n := range res.DecodeErrors {
		stats.DecodeErrors += uint64(n)
	}
	stats.Attacks += uint64(len(res.Attacks))

	if r.metrics != nil {
		r.metrics.BlocksProcessed.Inc()
		r.metrics.SwapsExtracted.Add(float64(res.Swaps))
		r.metrics.UnknownPrograms.Add(float64(res.UnknownPrograms))
		for program, n := range res.DecodeErrors {
			r.metrics.DecodeErrors.WithLabelValues(program).Add(float64(n))
		}
		r.metrics.AttacksDetected.Add(float64(len(res.Attacks)))
		r.metrics.LastEmittedSlot.Set(float64(res.Slot))
		r.metrics.LastSuccessfulBlock.SetToCurrentTime()
	}

	for _, attack := range res.Attacks {
		if err := r.emitter.Emit(ctx, attack); err != nil {
			stats.EmitErrors++
			if r.metrics != nil {
				r.metrics.EmitErrors.Inc()
			}
			r.logger.Error("attack emit failed",
				zap.Uint64("slot", attack.Slot),
				zap.String("attack_id", attack.AttackID),
				zap.Error(err),
			)
			continue
		}
		if r.metrics != nil {
			r.metrics.AttacksEmitted.Inc()
			r.metrics.VictimsPerAttack.Observe(float64(len(attack.VictimTxSignatures)))
		}
		r.logger.Info("sandwich attack detected",
			zap.Uint64("slot", attack.Slot),
			zap.String("pool", attack.Pool),
			zap.String("attacker", attack.Attacker),
			zap.Int("victims", len(attack.VictimTxSignatures)),
			zap.Float64("confidence", attack.Confidence),
		)
	}
}
