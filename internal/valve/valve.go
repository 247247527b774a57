// Package valve implements the per-endpoint admission and learning
// state that sits in front of every node call: a timestamped lock, a
// token-bucket quota, a safe-block tracker, and an adaptive log-range
// estimator. It is the one piece of mutable state a SafeNode owns
// outside the node itself, and is guarded by a mutex since admission
// checks and error reports can arrive from concurrent callers.
package valve

import (
	"sync"
	"time"

	"github.com/dmagro/ethlog/internal/clockx"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/logx"
)

const (
	initialLogRange   = 10
	lockBadServer     = 30 * time.Second
	lockBadResponse   = 30 * time.Second
	lockOverloading   = 15 * time.Second
	safeBlockFreshness = 6 * time.Second
	upwardLockDuration = 1 * time.Minute
)

// Valve governs admission and adaptive learning for one endpoint.
type Valve struct {
	mu sync.Mutex

	clock  clockx.Clock
	logger logx.Logger
	quota  ethval.EndpointQuota
	cfg    valveConfig

	remaining       uint
	refillAt        ethval.Timestamp
	lockUntil       ethval.Timestamp
	lockCause       ethval.ErrKind
	upwardLockUntil ethval.Timestamp

	latestBlock      *ethval.UInt64
	latestRecordedAt ethval.Timestamp
	safeBlock        *ethval.UInt64

	logRange uint64
}

// valveConfig carries the endpoint-specific adaptation borders, kept
// distinct from EndpointQuota so Valve's constructor reads naturally
// from an ethval.EthEndpoint.
type valveConfig struct {
	logSafeGap        uint64
	logRangeBoundary  uint64
	logSizeBorder     ethval.DataSize
	logTimeBorder     time.Duration
	logQuantityBorder uint64
}

// New builds a Valve for endpoint, using clock for all timing and
// logger for diagnostic output.
func New(endpoint ethval.EthEndpoint, clock clockx.Clock, logger logx.Logger) *Valve {
	return &Valve{
		clock:  clock,
		logger: logger,
		quota:  endpoint.Quota,
		cfg: valveConfig{
			logSafeGap:        endpoint.LogSafeGap,
			logRangeBoundary:  endpoint.LogRangeBoundary,
			logSizeBorder:     endpoint.LogSizeBorder,
			logTimeBorder:     endpoint.LogTimeBorder,
			logQuantityBorder: endpoint.LogQuantityBorder,
		},
		remaining: endpoint.Quota.BatchLimit,
		logRange:  initialLogRange,
	}
}

// Open checks admission for a step of quantity requests, optionally
// bound to relevant block block. The three gates run in order:
// timestamp lock, safe-block gate, then the quota bucket.
func (v *Valve) Open(quantity uint, block *ethval.UInt64) *ethval.Err {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()

	if v.lockUntil.Value() > now.Value() {
		return ethval.NewErr(v.lockCause, "endpoint is locked")
	}

	if block != nil && v.latestBlock != nil {
		age := now.Sub(v.latestRecordedAt)
		if time.Duration(age.Value())*time.Millisecond <= safeBlockFreshness {
			if v.safeBlock == nil || block.Value() > v.safeBlock.Value() {
				return ethval.NewErr(ethval.NodeUnsafeBlock, "requested block exceeds the confirmed safe horizon")
			}
		}
	}

	v.refillIfDue(now)
	if uint64(v.remaining) < uint64(quantity) {
		return ethval.NewErr(ethval.NodeRequestQuota, "endpoint request quota exhausted")
	}
	v.remaining -= quantity
	return nil
}

func (v *Valve) refillIfDue(now ethval.Timestamp) {
	if v.refillAt.Value() == 0 {
		v.refillAt = now.Add(ethval.NewTimespan(uint64(v.quota.BatchTimespan.Milliseconds())))
		return
	}
	if now.Value() >= v.refillAt.Value() {
		v.remaining = v.quota.BatchLimit
		v.refillAt = now.Add(ethval.NewTimespan(uint64(v.quota.BatchTimespan.Milliseconds())))
	}
}

// GiveBackQuota restores quantity tokens consumed for a step that did
// not run, capped at the batch limit (e.g. SafeNode refunds 1 of the
// get_logs admission charge after makeSafeFilter rejects the call).
func (v *Valve) GiveBackQuota(quantity uint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.remaining += quantity
	if v.remaining > v.quota.BatchLimit {
		v.remaining = v.quota.BatchLimit
	}
}

// ReportError routes a call failure to the appropriate lock handler.
func (v *Valve) ReportError(err *ethval.Err) {
	if err == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	switch err.Kind {
	case ethval.EthBadServer:
		v.arriveLock(now, lockBadServer, err.Kind)
	case ethval.EthBadResponse:
		v.arriveLock(now, lockBadResponse, err.Kind)
	case ethval.EthImplicitOverloading, ethval.EthExplicitOverloading:
		v.arriveLock(now, lockOverloading, err.Kind)
		v.downLogRangeLocked(now)
	default:
		v.logger.Info("valve: error not locked", map[string]any{"kind": err.Kind.String(), "message": err.Message})
	}
}

// arriveLock sets a fresh lock only if none is currently active;
// an already-locked endpoint keeps its original expiry but remembers
// the newest cause.
func (v *Valve) arriveLock(now ethval.Timestamp, duration time.Duration, cause ethval.ErrKind) {
	if v.lockUntil.Value() <= now.Value() {
		v.lockUntil = now.Add(ethval.NewTimespan(uint64(duration.Milliseconds())))
	}
	v.lockCause = cause
}

// SetLatestBlock records a freshly observed latest block number and
// derives the safe block as latest - logSafeGap, or marks it unknown
// if latest is too small.
func (v *Valve) SetLatestBlock(latest ethval.UInt64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	v.latestBlock = &latest
	v.latestRecordedAt = now

	if latest.Value() < v.cfg.logSafeGap {
		v.safeBlock = nil
		return
	}
	safe, err := ethval.NewUInt64(latest.Value() - v.cfg.logSafeGap)
	if err != nil {
		v.safeBlock = nil
		return
	}
	v.safeBlock = &safe
}

// UpdateLogRange performs the adaptation step after a successful
// get_logs call, re-estimating the safe log range from the observed
// response size, elapsed time, and log count. An increase is skipped
// while the upward lock from a recent down-adjustment is armed; a
// decrease is always accepted.
func (v *Valve) UpdateLogRange(resp ethval.NodeResponse[ethval.LogSegment]) {
	v.mu.Lock()
	defer v.mu.Unlock()

	seg := resp.Data
	span := seg.ToBlock.Value() - seg.FromBlock.Value() + 1
	if span == 0 {
		span = 1
	}
	r := float64(span)

	sizePerBlock := float64(resp.Size.Value()) / r
	if sizePerBlock < 1 {
		sizePerBlock = 1
	}
	rangeBySize := float64(v.cfg.logSizeBorder.Value()) / sizePerBlock
	if rangeBySize < 1 {
		rangeBySize = 1
	}

	timePerBlock := float64(resp.Elapsed.Value()) / r
	if timePerBlock < 1 {
		timePerBlock = 1
	}
	rangeByTime := float64(v.cfg.logTimeBorder.Milliseconds()) / timePerBlock

	countPerBlock := float64(len(seg.Logs)) / r
	if countPerBlock < 1 {
		countPerBlock = 1
	}
	rangeByCount := float64(v.cfg.logQuantityBorder) / countPerBlock

	newRange := minOf(rangeBySize, rangeByTime, rangeByCount, float64(v.cfg.logRangeBoundary))
	if newRange < 1 {
		newRange = 1
	}
	estimate := uint64(newRange)
	if estimate > v.logRange && v.upwardLockUntil.Value() > v.clock.Now().Value() {
		return
	}
	v.logRange = estimate
}

func minOf(vals ...float64) float64 {
	m := vals[0]
	for _, x := range vals[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// DownLogRange halves the current log range (never below 1) and arms
// a one-minute upward lock, preventing UpdateLogRange from escalating
// again too soon.
func (v *Valve) DownLogRange() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.downLogRangeLocked(v.clock.Now())
}

func (v *Valve) downLogRangeLocked(now ethval.Timestamp) {
	v.logRange = v.logRange / 2
	if v.logRange < 1 {
		v.logRange = 1
	}
	v.upwardLockUntil = now.Add(ethval.NewTimespan(uint64(upwardLockDuration.Milliseconds())))
}

// LogRange returns the current adaptive log-range estimate.
func (v *Valve) LogRange() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.logRange
}

// SafeBlockNumber returns the current safe (confirmed) block, or nil
// if no latest-block reading has established one yet.
func (v *Valve) SafeBlockNumber() *ethval.UInt64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.safeBlock == nil {
		return nil
	}
	safe := *v.safeBlock
	return &safe
}
