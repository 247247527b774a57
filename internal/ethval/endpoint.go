package ethval

import "time"

// EndpointQuota is the request budget an endpoint is willing to
// sustain: batchLimit requests per batchTimespan, refilled as a token
// bucket by RequestValve.
type EndpointQuota struct {
	BatchLimit    uint
	BatchTimespan time.Duration
}

// DefaultEndpointQuota is the default request budget: 20 requests per 60s.
func DefaultEndpointQuota() EndpointQuota {
	return EndpointQuota{BatchLimit: 20, BatchTimespan: 60 * time.Second}
}

// EthEndpoint is the configuration for one JSON-RPC endpoint.
type EthEndpoint struct {
	URL      HttpUrl
	Username string
	Password string

	Quota              EndpointQuota
	LogSafeGap         uint64
	LogRangeBoundary   uint64
	LogSizeBorder      DataSize
	LogTimeBorder      time.Duration
	LogQuantityBorder  uint64
	Timeout            time.Duration
}

// NewEthEndpoint builds an endpoint with reasonable defaults,
// overridable field-by-field by the caller after construction (the
// config package does this when a YAML file overrides a border).
func NewEthEndpoint(rawURL string) (EthEndpoint, error) {
	u, err := NewHttpUrl(rawURL)
	if err != nil {
		return EthEndpoint{}, err
	}
	const logTimeBorder = 5 * time.Second
	return EthEndpoint{
		URL:               u,
		Quota:             DefaultEndpointQuota(),
		LogSafeGap:        15,
		LogRangeBoundary:  5000,
		LogSizeBorder:     NewDataSize(4 * 1024 * 1024),
		LogTimeBorder:     logTimeBorder,
		LogQuantityBorder: 10000,
		Timeout:           logTimeBorder + 6*time.Second,
	}, nil
}

// Identity is the (host, canonicalized path) pair used to decide
// whether two endpoints are "the same" for duplicate rejection.
func (e EthEndpoint) Identity() string {
	return e.URL.Host() + e.URL.CanonicalPath()
}
