package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfigTreeSplitOnBoundaries mirrors spec scenario S6: a
// ConfigTree with children gain: {[1,10)=A, [10,100)=B} and rate:
// {[1,5)=X, [5,100)=Y}; split_on_boundaries(1,20) must yield
// [1,5){gain:A,rate:X}, [5,10){gain:A,rate:Y}, [10,20){gain:B,rate:Y}.
func TestConfigTreeSplitOnBoundaries(t *testing.T) {
	cfg := NewConfigTree()

	gain := NewIntIntervalTree()
	gain.Put(1, 10, "A")
	gain.Put(10, 100, "B")
	require.NoError(t, cfg.Put("gain", gain))

	rate := NewIntIntervalTree()
	rate.Put(1, 5, "X")
	rate.Put(5, 100, "Y")
	require.NoError(t, cfg.Put("rate", rate))

	got, err := cfg.SplitOnBoundaries(1, 20)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"gain": "A", "rate": "X"}, got[[2]int64{1, 5}])
	assert.Equal(t, map[string]interface{}{"gain": "A", "rate": "Y"}, got[[2]int64{5, 10}])
	assert.Equal(t, map[string]interface{}{"gain": "B", "rate": "Y"}, got[[2]int64{10, 20}])
}

func TestConfigTreeRejectsNonIntervalChild(t *testing.T) {
	cfg := NewConfigTree()
	err := cfg.Put("bad", NewLabelTree())
	assert.Error(t, err)
}

func TestConfigTreeBoundariesClipsToWindow(t *testing.T) {
	cfg := NewConfigTree()
	gain := NewIntIntervalTree()
	gain.Put(0, 100, "A")
	require.NoError(t, cfg.Put("gain", gain))

	got, err := cfg.Boundaries(10, 20, "gain")
	require.NoError(t, err)
	require.Len(t, got["gain"], 1)
	assert.Equal(t, ClippedInterval{Begin: 10, End: 20, Value: "A"}, got["gain"][0])
}
