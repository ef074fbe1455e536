package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordPutAndGetIncrementCounters(t *testing.T) {
	r, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	r.RecordPut("commit")
	r.RecordPut("commit")
	r.RecordGet("blob")
	r.RecordDataCorruption()
	r.RecordHeadMove("main")

	require.Equal(t, float64(2), testutil.ToFloat64(r.ODBPuts.WithLabelValues("commit")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.ODBGets.WithLabelValues("blob")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.DataCorruptions))
	require.Equal(t, float64(1), testutil.ToFloat64(r.HeadMoves.WithLabelValues("main")))
}

func TestNilRecorderIsANoop(t *testing.T) {
	var r *Recorder
	r.RecordPut("commit")
	r.RecordGet("blob")
	r.RecordDataCorruption()
	r.RecordHeadMove("main")
}
