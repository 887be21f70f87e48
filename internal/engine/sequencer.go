package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nft_market/internal/badge"
	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"
	"nft_market/internal/market"

	"github.com/shopspring/decimal"
)

// ErrStopped is returned when a command is submitted after the sequencer stopped.
var ErrStopped = errors.New("sequencer stopped")

// EventStore persists stamped events before they are published.
type EventStore interface {
	SaveEvent(ctx context.Context, market string, ev event.Event) error
}

// OpRecorder receives per-command outcomes (see infra.Metrics).
type OpRecorder interface {
	RecordOp(op string, latencyNs int64, err error)
}

// opSnapshot is a read; it is not counted as a market operation.
const opSnapshot = "snapshot"

type result struct {
	value any
	err   error
}

type command struct {
	ctx   context.Context
	op    string
	apply func(m *market.Market) (any, error)
	reply chan result
}

// Options tune a Sequencer.
type Options struct {
	InboxSize        int
	StartSeq         uint64 // First sequence number to stamp; 0 means 1
	VerifyInvariants bool   // Halt if any command leaves the market inconsistent
	DumpPath         string // Post-mortem state dump target
}

// Sequencer is the single-threaded command processor that owns one market.
// Every operation runs to completion inside Run before the next starts.
type Sequencer struct {
	inbox   chan command
	done    chan struct{}
	market  *market.Market
	events  *event.Buffer
	nextSeq uint64
	store   EventStore
	metrics OpRecorder
	opts    Options

	// Boundary: used to notify the feed or other systems of committed events
	onEvent func(event.Event)
}

// NewSequencer creates a new sequencer instance. store, metrics and onEvent may be nil.
func NewSequencer(m *market.Market, store EventStore, metrics OpRecorder, onEvent func(event.Event), opts Options) *Sequencer {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.StartSeq == 0 {
		opts.StartSeq = 1
	}
	if opts.DumpPath == "" {
		opts.DumpPath = "panic_dump.json"
	}
	buf := &event.Buffer{}
	m.SetEmitter(buf)
	return &Sequencer{
		inbox:   make(chan command, opts.InboxSize),
		done:    make(chan struct{}),
		market:  m,
		events:  buf,
		nextSeq: opts.StartSeq,
		store:   store,
		metrics: metrics,
		opts:    opts,
		onEvent: onEvent,
	}
}

// Market returns the owned market for read-only queries.
func (s *Sequencer) Market() *market.Market { return s.market }

// NextSeq returns the next sequence number to be stamped. Only safe once Run returned.
func (s *Sequencer) NextSeq() uint64 { return s.nextSeq }

// Run starts the main command loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started", slog.String("market", s.market.Address()))
	defer close(s.done)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(s.opts.DumpPath)
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case cmd := <-s.inbox:
			cmd.reply <- s.process(cmd)
		}
	}
}

func (s *Sequencer) process(cmd command) result {
	// A command whose caller gave up before it reached the front of the
	// inbox is dropped without touching the market.
	if cmd.ctx != nil {
		if err := cmd.ctx.Err(); err != nil {
			slog.Debug("Command abandoned", slog.String("op", cmd.op), slog.Any("error", err))
			return result{err: err}
		}
	}

	start := time.Now()
	value, err := cmd.apply(s.market)

	// Journal-first: committed events are persisted before anyone sees them.
	for _, ev := range s.events.Drain() {
		ev.SetSeq(s.nextSeq)
		if s.store != nil {
			if serr := s.store.SaveEvent(context.Background(), s.market.Address(), ev); serr != nil {
				panic(fmt.Sprintf("PERSISTENCE_FAILURE: seq %d: %v", s.nextSeq, serr))
			}
		}
		s.nextSeq++
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}

	if s.opts.VerifyInvariants {
		if verr := s.market.VerifyInvariants(); verr != nil {
			panic(fmt.Sprintf("INVARIANT_FAILURE after %s: %v", cmd.op, verr))
		}
	}

	if cmd.op == opSnapshot {
		return result{value: value, err: err}
	}
	if s.metrics != nil {
		s.metrics.RecordOp(cmd.op, time.Since(start).Nanoseconds(), err)
	}
	if err != nil {
		slog.Warn("Command rejected", slog.String("op", cmd.op), slog.Any("error", err))
	} else {
		slog.Debug("Command applied", slog.String("op", cmd.op))
	}
	return result{value: value, err: err}
}

// submit enqueues a command and waits for its result. Once enqueued, the
// caller waits for the reply even if ctx ends: the loop either runs the
// command or drops it with ctx.Err(), and the reply says which.
func (s *Sequencer) submit(ctx context.Context, op string, apply func(m *market.Market) (any, error)) (any, error) {
	cmd := command{ctx: ctx, op: op, apply: apply, reply: make(chan result, 1)}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrStopped
	case s.inbox <- cmd:
	}
	select {
	case <-s.done:
		// Run may have replied just before stopping
		select {
		case res := <-cmd.reply:
			return res.value, res.err
		default:
			return nil, ErrStopped
		}
	case res := <-cmd.reply:
		return res.value, res.err
	}
}

// Sell lists asset at price.
func (s *Sequencer) Sell(ctx context.Context, asset custody.Asset, price decimal.Decimal) (badge.Badge, error) {
	v, err := s.submit(ctx, domain.OpSell, func(m *market.Market) (any, error) {
		return m.Sell(asset, price)
	})
	if err != nil {
		return badge.Badge{}, err
	}
	return v.(badge.Badge), nil
}

// Update re-prices the listing controlled by b.
func (s *Sequencer) Update(ctx context.Context, b badge.Badge, price decimal.Decimal) (badge.Badge, error) {
	v, err := s.submit(ctx, domain.OpUpdate, func(m *market.Market) (any, error) {
		return m.Update(b, price)
	})
	if err != nil {
		return b, err
	}
	return v.(badge.Badge), nil
}

// Cancel withdraws the listing controlled by b.
func (s *Sequencer) Cancel(ctx context.Context, b badge.Badge) (custody.Asset, error) {
	v, err := s.submit(ctx, domain.OpCancel, func(m *market.Market) (any, error) {
		return m.Cancel(b)
	})
	if err != nil {
		return custody.Asset{}, err
	}
	return v.(custody.Asset), nil
}

type purchase struct {
	asset  custody.Asset
	change *custody.Funds
}

// Buy settles the offer on assetID.
func (s *Sequencer) Buy(ctx context.Context, assetID string, payment *custody.Funds) (custody.Asset, *custody.Funds, error) {
	v, err := s.submit(ctx, domain.OpBuy, func(m *market.Market) (any, error) {
		asset, change, err := m.Buy(assetID, payment)
		return purchase{asset: asset, change: change}, err
	})
	if err != nil {
		return custody.Asset{}, payment, err
	}
	p := v.(purchase)
	return p.asset, p.change, nil
}

// Collect releases the proceeds owed to b.
func (s *Sequencer) Collect(ctx context.Context, b badge.Badge) (*custody.Funds, error) {
	v, err := s.submit(ctx, domain.OpCollect, func(m *market.Market) (any, error) {
		return m.Collect(b)
	})
	if err != nil {
		return nil, err
	}
	return v.(*custody.Funds), nil
}

// CollectFees sweeps the fee treasury.
func (s *Sequencer) CollectFees(ctx context.Context, proof custody.Proof) (*custody.Funds, error) {
	v, err := s.submit(ctx, domain.OpCollectFees, func(m *market.Market) (any, error) {
		return m.CollectFees(proof)
	})
	if err != nil {
		return nil, err
	}
	return v.(*custody.Funds), nil
}

// Snapshot returns market state ordered with respect to submitted commands.
func (s *Sequencer) Snapshot(ctx context.Context) (domain.MarketSnapshot, error) {
	v, err := s.submit(ctx, opSnapshot, func(m *market.Market) (any, error) {
		return m.Snapshot(), nil
	})
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	return v.(domain.MarketSnapshot), nil
}

// DumpState writes the entire market state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64                `json:"next_seq"`
		Market  domain.MarketSnapshot `json:"market"`
	}{
		NextSeq: s.nextSeq,
		Market:  s.market.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
