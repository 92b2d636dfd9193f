package lockbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	gapOrphanBlob  = "orphan_blob"
	gapMissingBlob = "missing_blob"
)

var consistencyGaps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lockbox_consistency_gaps_total",
		Help: "Blob/record divergences left behind by partially failed uploads and deletes.",
	},
	[]string{"kind"},
)
