package lockbox

import "github.com/prometheus/client_golang/prometheus/testutil"

const (
	GapOrphanBlob  = gapOrphanBlob
	GapMissingBlob = gapMissingBlob
)

// ConsistencyGaps returns the current value of the gap counter for kind.
func ConsistencyGaps(kind string) float64 {
	return testutil.ToFloat64(consistencyGaps.WithLabelValues(kind))
}
