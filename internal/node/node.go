// Package node implements one JSON-RPC HTTP endpoint: typed calls that
// classify transport/protocol failures into the stable ErrKind
// taxonomy and measure response size and elapsed time, generalizing a
// Call/BlockNumber/GetBlock style client into shared ethval domain
// types plus a full transport failure taxonomy.
package node

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/dmagro/ethlog/internal/abiproto"
	"github.com/dmagro/ethlog/internal/ethval"
	"github.com/dmagro/ethlog/internal/rpcproto"
	"github.com/dmagro/ethlog/internal/transport"
)

// Node is one HTTP-backed JSON-RPC endpoint.
type Node struct {
	endpoint  ethval.EthEndpoint
	transport transport.Transport
	codec     rpcproto.Codec
	coder     abiproto.Coder
}

// New builds a Node for endpoint, with the default HTTP transport,
// JSON-RPC codec, and keccak256 ABI coder.
func New(endpoint ethval.EthEndpoint) *Node {
	return &Node{
		endpoint:  endpoint,
		transport: transport.New(endpoint.Username, endpoint.Password),
		codec:     rpcproto.JSONCodec{},
		coder:     abiproto.Keccak256Coder{},
	}
}

// NewWithDeps builds a Node with explicit collaborators, for testing
// or for swapping in an alternate transport/codec/ABI coder.
func NewWithDeps(endpoint ethval.EthEndpoint, tr transport.Transport, codec rpcproto.Codec, coder abiproto.Coder) *Node {
	return &Node{endpoint: endpoint, transport: tr, codec: codec, coder: coder}
}

// Endpoint returns the configuration this Node was built from.
func (n *Node) Endpoint() ethval.EthEndpoint { return n.endpoint }

// call performs one JSON-RPC round trip and returns the decoded
// envelope plus instrumentation, or a classified *ethval.Err.
func (n *Node) call(ctx context.Context, method string, params ...interface{}) (*rpcproto.Response, ethval.DataSize, ethval.Timespan, *ethval.Err) {
	body, err := n.codec.EncodeRequest(method, params)
	if err != nil {
		return nil, ethval.DataSize{}, ethval.Timespan{}, ethval.NewErr(ethval.EthBadRequest, err.Error())
	}

	resp, err := n.transport.Post(ctx, n.endpoint.URL.String(), body, n.endpoint.Timeout)
	if err != nil {
		return nil, ethval.DataSize{}, ethval.Timespan{}, classifyTransportError(ctx, err)
	}

	size := ethval.NewDataSize(uint64(resp.Size))
	elapsed := ethval.NewTimespan(uint64(resp.Elapsed.Milliseconds()))

	if kind, ok := classifyStatus(resp.Status); ok {
		return nil, size, elapsed, ethval.NewErr(kind, fmt.Sprintf("HTTP status %d", resp.Status))
	}

	rpcResp, err := n.codec.DecodeResponse(resp.Body)
	if err != nil {
		return nil, size, elapsed, ethval.NewErr(ethval.EthBadResponse, err.Error())
	}
	if rpcResp.Error != nil {
		return nil, size, elapsed, ethval.NewErr(ethval.EthBadRequest, rpcResp.Error.Message)
	}
	return rpcResp, size, elapsed, nil
}

// classifyTransportError maps a net/http-layer error (everything short
// of a parsed status code) to OVERLOADING (implicit) or BAD_SERVER.
func classifyTransportError(ctx context.Context, err error) *ethval.Err {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ethval.NewErr(ethval.EthImplicitOverloading, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ethval.NewErr(ethval.EthImplicitOverloading, "request timed out")
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ethval.NewErr(ethval.EthImplicitOverloading, "dns failure: "+err.Error())
	}
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var alertErr tls.AlertError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &alertErr) {
		return ethval.NewErr(ethval.EthImplicitOverloading, "tls failure: "+err.Error())
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Connection refused and similar dial-stage failures imply
		// the peer is unreachable/throttling at the network level;
		// anything else post-dial is treated as a bad server.
		if opErr.Op == "dial" {
			return ethval.NewErr(ethval.EthImplicitOverloading, err.Error())
		}
		return ethval.NewErr(ethval.EthBadServer, err.Error())
	}
	return ethval.NewErr(ethval.EthBadServer, err.Error())
}

// classifyStatus maps an HTTP status code to an ErrKind. ok is false
// for 2xx/1xx statuses, which are not errors at this layer (a
// non-JSON 2xx body is instead caught by DecodeResponse).
func classifyStatus(status int) (ethval.ErrKind, bool) {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return ethval.EthExplicitOverloading, true
	case status >= 500:
		return ethval.EthBadServer, true
	case status >= 400:
		return ethval.EthBadRequest, true
	default:
		return ethval.None, false
	}
}

// decodeResult turns a json.Unmarshal failure on a result payload into
// ETH_BAD_RESPONSE: any hex/shape violation is a bad response, not a
// panic or a silently zeroed value.
func decodeResult(raw json.RawMessage, v interface{}) *ethval.Err {
	if err := json.Unmarshal(raw, v); err != nil {
		return ethval.NewErr(ethval.EthBadResponse, err.Error())
	}
	return nil
}
