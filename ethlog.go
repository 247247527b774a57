// Package ethlog is a fault-tolerant client for fleets of
// Ethereum-compatible JSON-RPC endpoints. It streams event logs,
// blocks, and transactions from untrusted public nodes that rate-limit,
// return bad data, or disagree on the chain head, pacing itself to what
// each endpoint can sustain.
//
// The reliability stack has four layers, composed bottom-up:
//
//   - a per-endpoint valve enforcing a request quota, timestamped
//     failure locks, and an adaptive eth_getLogs block-range estimate;
//   - a safe node wrapping each raw endpoint, restricting queries that
//     touch recent blocks to the confirmed ("safe") subrange;
//   - a gateway round-robining over one tier of safe nodes with
//     per-call failover and cascade to a backup tier;
//   - a log stream advancing a cursor over block ranges, pipelining
//     one fetch ahead of the consumer's handler.
//
// Consumers construct a Client from two endpoint lists (primary and
// backup) and either query it directly or attach a LogStream.
package ethlog

import (
	"github.com/dmagro/ethlog/internal/ethval"
)

// Value types and domain entities, aliased from the internal package so
// consumers can construct filters and inspect results without reaching
// into internal paths.
type (
	UInt      = ethval.UInt
	UInt16    = ethval.UInt16
	UInt64    = ethval.UInt64
	Timestamp = ethval.Timestamp
	Timespan  = ethval.Timespan
	DataSize  = ethval.DataSize

	ByteData   = ethval.ByteData
	ByteData32 = ethval.ByteData32
	Address    = ethval.Address
	HttpUrl    = ethval.HttpUrl

	Block               = ethval.Block
	Transaction         = ethval.Transaction
	Log                 = ethval.Log
	LogSegment          = ethval.LogSegment
	LogFilter           = ethval.LogFilter
	LogTopicFilter      = ethval.LogTopicFilter
	LogTopicCombination = ethval.LogTopicCombination
	TopicPosition       = ethval.TopicPosition

	EthEndpoint   = ethval.EthEndpoint
	EndpointQuota = ethval.EndpointQuota

	ErrKind = ethval.ErrKind
	Err     = ethval.Err
)

// NodeResponse wraps a result with the response-size and elapsed-time
// instrumentation measured at the HTTP layer.
type NodeResponse[T any] = ethval.NodeResponse[T]

// Constructors, re-exported 1:1.
var (
	NewUInt       = ethval.NewUInt
	NewUInt16     = ethval.NewUInt16
	NewUInt64     = ethval.NewUInt64
	NewTimestamp  = ethval.NewTimestamp
	NewTimespan   = ethval.NewTimespan
	NewDataSize   = ethval.NewDataSize
	ParseHexUint64 = ethval.ParseHexUint64

	FromHex        = ethval.FromHex
	FromBadHex     = ethval.FromBadHex
	FromHex32      = ethval.FromHex32
	FromHexAddress = ethval.FromHexAddress
	NewByteData    = ethval.NewByteData
	NewHttpUrl     = ethval.NewHttpUrl

	NewLogFilter           = ethval.NewLogFilter
	NewLogTopicFilter      = ethval.NewLogTopicFilter
	NewLogTopicCombination = ethval.NewLogTopicCombination
	EmptyLogTopicFilter    = ethval.EmptyLogTopicFilter
	TopicExact             = ethval.TopicExact
	TopicAnyOf             = ethval.TopicAnyOf
	TopicWildcard          = ethval.TopicWildcard

	NewEthEndpoint       = ethval.NewEthEndpoint
	DefaultEndpointQuota = ethval.DefaultEndpointQuota
)

// Error kinds, re-exported so callers can match on a result's Kind.
const (
	ErrNone                   = ethval.None
	ErrTypeValidation         = ethval.TypeValidation
	ErrEthImplicitOverloading = ethval.EthImplicitOverloading
	ErrEthExplicitOverloading = ethval.EthExplicitOverloading
	ErrEthBadRequest          = ethval.EthBadRequest
	ErrEthBadResponse         = ethval.EthBadResponse
	ErrEthBadServer           = ethval.EthBadServer
	ErrEthNoBlock             = ethval.EthNoBlock
	ErrEthNoTransaction       = ethval.EthNoTransaction
	ErrNodeRequestQuota       = ethval.NodeRequestQuota
	ErrNodeUnsafeBlock        = ethval.NodeUnsafeBlock
	ErrGatewayBadBackend      = ethval.GatewayBadBackend
	ErrGatewayNoBackend       = ethval.GatewayNoBackend
)
