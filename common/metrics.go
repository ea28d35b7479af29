package common

import "github.com/ethereum/go-ethereum/metrics"

// The metrics package hands out no-op meters unless this is set,
// and it must be set before any meter is made.
func init() {
	metrics.Enabled = true
}
