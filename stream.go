package ethlog

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
)

// Handler consumes one log segment. Segments arrive in strict
// ascending block order, exactly once each; a returned error is logged
// and the stream continues.
type Handler func(ctx context.Context, segment LogSegment, client *Client) error

// LogStream walks the log history forward from a starting block,
// fetching one safe segment per cycle and handing each to the handler.
// A single-slot double buffer lets the next fetch overlap the handler
// run for the previous segment — one segment in flight, never more, so
// ordering and exactly-once delivery hold without further coordination.
type LogStream struct {
	client  *Client
	handler Handler
	logger  logx.Logger

	addresses []Address
	topics    LogTopicFilter
	interval  time.Duration
	logRange  uint64

	readerBlock    uint64
	readerOutput   *LogSegment
	processorInput *LogSegment
}

// StreamOption adjusts LogStream construction.
type StreamOption func(*LogStream)

// StreamFromBlock starts the cursor at from instead of block 0.
func StreamFromBlock(from UInt64) StreamOption {
	return func(s *LogStream) { s.readerBlock = from.Value() }
}

// StreamAddresses narrows the stream to logs emitted by these contracts.
func StreamAddresses(addresses ...Address) StreamOption {
	return func(s *LogStream) { s.addresses = addresses }
}

// StreamTopics narrows the stream by topic filter.
func StreamTopics(topics LogTopicFilter) StreamOption {
	return func(s *LogStream) { s.topics = topics }
}

// StreamInterval sets the pause between cycles. Zero disables pacing.
func StreamInterval(interval time.Duration) StreamOption {
	return func(s *LogStream) { s.interval = interval }
}

// StreamLogger routes the stream's diagnostics to logger.
func StreamLogger(logger logx.Logger) StreamOption {
	return func(s *LogStream) { s.logger = logger }
}

// NewLogStream builds a stream over client delivering to handler.
// Defaults: from block 0, all addresses, all topics, 6s interval.
func NewLogStream(client *Client, handler Handler, opts ...StreamOption) *LogStream {
	s := &LogStream{
		client:   client,
		handler:  handler,
		logger:   logx.Nop,
		topics:   EmptyLogTopicFilter(),
		interval: 6 * time.Second,
		logRange: client.maxLogRangeBoundary(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CursorBlock reports the next block the reader will request.
func (s *LogStream) CursorBlock() uint64 { return s.readerBlock }

// Run cycles Step until ctx is cancelled. Errors inside a cycle are
// logged, never fatal: a failed fetch leaves the cursor unchanged and
// the next cycle retries the same window.
func (s *LogStream) Run(ctx context.Context) error {
	for {
		s.Step(ctx)
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

func (s *LogStream) pause(ctx context.Context) error {
	if s.interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Step runs one cycle: the fetch task and the handler task in
// parallel, joined before the buffer shift. The two tasks touch
// disjoint slots (readerOutput vs processorInput), so the only
// synchronization needed is the join itself.
func (s *LogStream) Step(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.readLogs(gctx)
		return nil
	})
	g.Go(func() error {
		s.processLogs(gctx)
		return nil
	})
	_ = g.Wait()

	if s.processorInput == nil {
		s.processorInput = s.readerOutput
		s.readerOutput = nil
	}
}

// readLogs fetches the next segment into the reader slot, if free, and
// advances the cursor past it. A fetch error leaves both untouched.
func (s *LogStream) readLogs(ctx context.Context) {
	if s.readerOutput != nil {
		return
	}
	from, err := ethval.NewUInt64(s.readerBlock)
	if err != nil {
		s.logger.Error("stream: cursor out of range", err, nil)
		return
	}
	toVal := s.readerBlock + s.logRange - 1
	if toVal < s.readerBlock {
		toVal = math.MaxUint64
	}
	to, err := ethval.NewUInt64(toVal)
	if err != nil {
		s.logger.Error("stream: window out of range", err, nil)
		return
	}
	filter, err := ethval.NewLogFilter(from, to, s.addresses, s.topics)
	if err != nil {
		s.logger.Error("stream: building filter", err, nil)
		return
	}

	resp, errk := s.client.GetLogs(ctx, filter)
	if errk != nil {
		s.logger.Warn("stream: fetch failed", map[string]any{
			"fromBlock": s.readerBlock, "kind": errk.Kind.String(), "message": errk.Message,
		})
		return
	}
	segment := resp.Data
	s.readerOutput = &segment
	s.readerBlock = segment.ToBlock.Value() + 1
}

// processLogs delivers the buffered segment, if any, and frees the slot.
func (s *LogStream) processLogs(ctx context.Context) {
	if s.processorInput == nil {
		return
	}
	segment := *s.processorInput
	if err := s.handler(ctx, segment, s.client); err != nil {
		s.logger.Error("stream: handler failed", err, map[string]any{
			"fromBlock": segment.FromBlock.Value(), "toBlock": segment.ToBlock.Value(),
		})
	}
	s.processorInput = nil
}
