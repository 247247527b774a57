package ethval

// ErrKind is a stable, wire-identified error taxonomy: every
// operational failure surfaces one of these, mapped 1:1 to a small
// integer so callers on either side of a process boundary can match
// on it without string comparison.
type ErrKind int

const (
	// None indicates no error (used as a zero value in result types
	// that carry an ErrKind alongside a success flag).
	None ErrKind = iota

	// TypeValidation covers construction/validation failures raised
	// at the value-type boundary, before anything touches the network.
	TypeValidation

	// EthImplicitOverloading is raised for connection refused, DNS
	// failure, TLS failure, or timeout — conditions that *imply* the
	// peer is throttling without saying so explicitly.
	EthImplicitOverloading
	// EthExplicitOverloading is raised for HTTP 429/503 — the peer
	// saying so explicitly.
	EthExplicitOverloading
	// EthBadRequest is raised for other 4xx statuses and JSON-RPC
	// error responses: the fault is in what the caller asked for.
	EthBadRequest
	// EthBadResponse is raised when the HTTP layer succeeds but the
	// body isn't valid JSON or doesn't match the expected shape.
	EthBadResponse
	// EthBadServer is raised for HTTP 5xx (other than 503) or a
	// network error that occurs after the connection was established.
	EthBadServer
	// EthNoBlock is raised when eth_getBlockByNumber returns a null
	// result: the block doesn't exist yet (or ever).
	EthNoBlock
	// EthNoTransaction is raised when eth_getTransactionByHash
	// returns a null result.
	EthNoTransaction

	// NodeRequestQuota is raised by RequestValve when admitting the
	// call would exceed the endpoint's request budget.
	NodeRequestQuota
	// NodeUnsafeBlock is raised when a query touches a block number
	// beyond the endpoint's currently known safe (confirmed) horizon.
	NodeUnsafeBlock

	// GatewayBadBackend is raised when every node in a tier (and any
	// cascaded lower tier) failed.
	GatewayBadBackend
	// GatewayNoBackend is raised when a tier has zero configured nodes.
	GatewayNoBackend
)

// String renders the stable wire name for k.
func (k ErrKind) String() string {
	switch k {
	case None:
		return "NONE"
	case TypeValidation:
		return "TYPE_VALIDATION"
	case EthImplicitOverloading:
		return "ETH_IMPLICIT_OVERLOADING"
	case EthExplicitOverloading:
		return "ETH_EXPLICIT_OVERLOADING"
	case EthBadRequest:
		return "ETH_BAD_REQUEST"
	case EthBadResponse:
		return "ETH_BAD_RESPONSE"
	case EthBadServer:
		return "ETH_BAD_SERVER"
	case EthNoBlock:
		return "ETH_NO_BLOCK"
	case EthNoTransaction:
		return "ETH_NO_TRANSACTION"
	case NodeRequestQuota:
		return "NODE_REQUEST_QUOTA"
	case NodeUnsafeBlock:
		return "NODE_UNSAFE_BLOCK"
	case GatewayBadBackend:
		return "GATEWAY_BAD_BACKEND"
	case GatewayNoBackend:
		return "GATEWAY_NO_BACKEND"
	default:
		return "UNKNOWN"
	}
}

// IsOverloading reports whether k is either overloading variant —
// the condition RequestValve.ReportError treats as "halve the log
// range" in addition to locking the endpoint.
func (k ErrKind) IsOverloading() bool {
	return k == EthImplicitOverloading || k == EthExplicitOverloading
}

// Err is an operational error carrying a stable Kind plus a
// human-readable message, the type every SafeNode/Gateway/Valve
// operation returns instead of a bare error.
type Err struct {
	Kind    ErrKind
	Message string
}

// Error satisfies the error interface.
func (e *Err) Error() string { return e.Kind.String() + ": " + e.Message }

// NewErr builds an *Err.
func NewErr(kind ErrKind, message string) *Err {
	return &Err{Kind: kind, Message: message}
}
