package ethval

import "fmt"

// Block is a minimal Ethereum block: enough for a consumer to know
// what height/time a segment of logs sits at and which transactions
// occurred in it.
type Block struct {
	Number       UInt64
	Timestamp    Timestamp
	Transactions []ByteData32
}

// Transaction is a minimal Ethereum transaction lookup result.
type Transaction struct {
	Hash             ByteData32
	From             Address
	To               Address
	BlockNumber      UInt64
	TransactionIndex UInt16
}

// LogTopicCombination is the ordered topic list actually attached to
// one emitted log (at most 4 entries, per the EVM's LOG0..LOG4 opcodes).
type LogTopicCombination struct {
	topics []ByteData32
}

// NewLogTopicCombination validates the 0..4 length bound.
func NewLogTopicCombination(topics []ByteData32) (LogTopicCombination, error) {
	if len(topics) > 4 {
		return LogTopicCombination{}, fmt.Errorf("ethval: log has %d topics, max is 4", len(topics))
	}
	cp := make([]ByteData32, len(topics))
	copy(cp, topics)
	return LogTopicCombination{cp}, nil
}

// Topics returns a copy of the topic list.
func (c LogTopicCombination) Topics() []ByteData32 {
	cp := make([]ByteData32, len(c.topics))
	copy(cp, c.topics)
	return cp
}

// Len reports how many topics are present.
func (c LogTopicCombination) Len() int { return len(c.topics) }

// TopicPosition is one position in a LogTopicFilter: either a single
// required topic, or a disjunctive set of acceptable topics.
type TopicPosition struct {
	single  *ByteData32
	anyOf   []ByteData32
	isEmpty bool
}

// TopicExact matches exactly one topic at this position.
func TopicExact(t ByteData32) TopicPosition { return TopicPosition{single: &t} }

// TopicAnyOf matches any of the given topics at this position
// (disjunctive / "OR" position, per the eth_getLogs filter spec).
func TopicAnyOf(ts ...ByteData32) TopicPosition {
	cp := make([]ByteData32, len(ts))
	copy(cp, ts)
	return TopicPosition{anyOf: cp}
}

// TopicWildcard matches any topic (or no topic) at this position.
func TopicWildcard() TopicPosition { return TopicPosition{isEmpty: true} }

// IsWildcard reports whether this position matches anything.
func (p TopicPosition) IsWildcard() bool { return p.isEmpty }

// Values returns the topic(s) this position requires: a single-element
// slice for TopicExact, the full set for TopicAnyOf, nil for a wildcard.
func (p TopicPosition) Values() []ByteData32 {
	if p.single != nil {
		return []ByteData32{*p.single}
	}
	return p.anyOf
}

// LogTopicFilter is an ordered sequence of up to 4 topic positions, as
// sent in an eth_getLogs request.
type LogTopicFilter struct {
	positions []TopicPosition
}

// NewLogTopicFilter validates the 0..4 length bound.
func NewLogTopicFilter(positions []TopicPosition) (LogTopicFilter, error) {
	if len(positions) > 4 {
		return LogTopicFilter{}, fmt.Errorf("ethval: topic filter has %d positions, max is 4", len(positions))
	}
	cp := make([]TopicPosition, len(positions))
	copy(cp, positions)
	return LogTopicFilter{cp}, nil
}

// EmptyLogTopicFilter is the filter that matches every topic
// combination (LogStream's default).
func EmptyLogTopicFilter() LogTopicFilter { return LogTopicFilter{} }

// Positions returns a copy of the topic positions.
func (f LogTopicFilter) Positions() []TopicPosition {
	cp := make([]TopicPosition, len(f.positions))
	copy(cp, f.positions)
	return cp
}

// LogFilter describes a request for logs over a closed block range,
// optionally narrowed by contract address and topics.
type LogFilter struct {
	FromBlock UInt64
	ToBlock   UInt64
	Addresses []Address
	Topics    LogTopicFilter
}

// NewLogFilter validates FromBlock <= ToBlock.
func NewLogFilter(from, to UInt64, addresses []Address, topics LogTopicFilter) (LogFilter, error) {
	if from.Value() > to.Value() {
		return LogFilter{}, fmt.Errorf("ethval: log filter fromBlock %d > toBlock %d", from.Value(), to.Value())
	}
	cp := make([]Address, len(addresses))
	copy(cp, addresses)
	return LogFilter{FromBlock: from, ToBlock: to, Addresses: cp, Topics: topics}, nil
}

// WithRange returns a copy of f narrowed to [from, to], keeping
// addresses/topics. Used by SafeNode to cap a caller's filter to the
// adaptive, safe sub-range.
func (f LogFilter) WithRange(from, to UInt64) (LogFilter, error) {
	return NewLogFilter(from, to, f.Addresses, f.Topics)
}

// Log is one emitted Ethereum event log.
type Log struct {
	Address          Address
	BlockNumber      UInt64
	LogIndex         UInt16
	TransactionIndex UInt16
	Topics           LogTopicCombination
	Data             ByteData
	BlockHash        ByteData32
	TransactionHash  ByteData32
}

// LogSegment is a contiguous, fully-safe slice of log history returned
// by one eth_getLogs call, plus the chain-head context it was taken
// against.
type LogSegment struct {
	Logs        []Log
	FromBlock   UInt64
	ToBlock     UInt64
	LatestBlock UInt64
	SafeBlock   UInt64
}

// NewLogSegment validates the shape a consistent log segment must
// have: every log falls inside [fromBlock, toBlock], logs are sorted
// by (blockNumber, logIndex), and toBlock <= safeBlock <= latestBlock.
func NewLogSegment(logs []Log, from, to, latest, safe UInt64) (LogSegment, error) {
	if to.Value()+1 < from.Value() {
		return LogSegment{}, fmt.Errorf("ethval: log segment toBlock %d is before fromBlock-1 %d", to.Value(), from.Value())
	}
	if to.Value() > safe.Value() || safe.Value() > latest.Value() {
		return LogSegment{}, fmt.Errorf("ethval: log segment must satisfy toBlock(%d) <= safeBlock(%d) <= latestBlock(%d)",
			to.Value(), safe.Value(), latest.Value())
	}
	cp := make([]Log, len(logs))
	copy(cp, logs)
	for i, l := range cp {
		if l.BlockNumber.Value() < from.Value() || l.BlockNumber.Value() > to.Value() {
			return LogSegment{}, fmt.Errorf("ethval: log[%d] blockNumber %d out of segment range [%d,%d]",
				i, l.BlockNumber.Value(), from.Value(), to.Value())
		}
		if i > 0 {
			prev := cp[i-1]
			if l.BlockNumber.Value() < prev.BlockNumber.Value() ||
				(l.BlockNumber.Value() == prev.BlockNumber.Value() && l.LogIndex.Value() < prev.LogIndex.Value()) {
				return LogSegment{}, fmt.Errorf("ethval: logs are not sorted by (blockNumber, logIndex) at index %d", i)
			}
		}
	}
	return LogSegment{Logs: cp, FromBlock: from, ToBlock: to, LatestBlock: latest, SafeBlock: safe}, nil
}

// NodeResponse wraps a successfully decoded result with the
// instrumentation the Node layer measured: response body size and
// wall-clock elapsed time.
type NodeResponse[T any] struct {
	Data    T
	Size    DataSize
	Elapsed Timespan
}
