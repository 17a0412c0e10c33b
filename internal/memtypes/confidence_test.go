package memtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceOrdering(t *testing.T) {
	assert.Less(t, int(ConfidenceNone), int(ConfidenceLow))
	assert.Less(t, int(ConfidenceLow), int(ConfidenceMedium))
	assert.Less(t, int(ConfidenceMedium), int(ConfidenceHigh))
}

func TestCalculateConfidenceUnverifiedIsAlwaysNone(t *testing.T) {
	assert.Equal(t, ConfidenceNone, CalculateConfidence(false, UserStated(), 100))
}

func TestCalculateConfidenceUserStatedIsAlwaysHigh(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, CalculateConfidence(true, UserStated(), 0))
	assert.Equal(t, ConfidenceHigh, CalculateConfidence(true, UserStated(), 50))
}

func TestCalculateConfidenceFileContentBoundary(t *testing.T) {
	assert.Equal(t, ConfidenceMedium, CalculateConfidence(true, FileContent("a.md"), 5))
	assert.Equal(t, ConfidenceHigh, CalculateConfidence(true, FileContent("a.md"), 6))
}

func TestCalculateConfidenceWebSearchAndHeartbeatAreMedium(t *testing.T) {
	assert.Equal(t, ConfidenceMedium, CalculateConfidence(true, WebSearch("u", "q"), 0))
	assert.Equal(t, ConfidenceMedium, CalculateConfidence(true, HeartbeatDiscovery("task"), 0))
}

func TestCalculateConfidenceUnknownBoundary(t *testing.T) {
	assert.Equal(t, ConfidenceLow, CalculateConfidence(true, UnknownProvenance(), 10))
	assert.Equal(t, ConfidenceMedium, CalculateConfidence(true, UnknownProvenance(), 11))
}

func TestConfidenceTableIsTotal(t *testing.T) {
	provenances := []interface {
		String() string
	}{UserStated(), WebSearch("u", "q"), FileContent("p"), HeartbeatDiscovery("t"), UnknownProvenance()}
	for _, p := range provenances {
		got := CalculateConfidence(true, p.(Provenance), 0)
		assert.NotEqual(t, ConfidenceNone, got, "verified chunk must never resolve to None for %v", p)
	}
}
