package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_Route(t *testing.T) {
	r := NewRouter("", "")

	tests := []struct {
		name      string
		score     int
		threshold int
		want      string
	}{
		{"equal to threshold passes", 75, 75, StatusInterview},
		{"one below threshold reviews", 74, 75, StatusReview},
		{"above threshold passes", 90, 75, StatusInterview},
		{"scenario", 12, 10, StatusInterview},
		{"negative score reviews", -3, 0, StatusReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.score, tt.threshold))
		})
	}
}

func TestRouter_SingleTenantLabels(t *testing.T) {
	r := NewRouter("Interview Scheduled", "Pending Manual Review")

	assert.Equal(t, "Interview Scheduled", r.Route(10, 10))
	assert.Equal(t, "Pending Manual Review", r.Route(9, 10))
}

func TestResolveThreshold(t *testing.T) {
	zero, fifty := 0, 50

	assert.Equal(t, 50, ResolveThreshold(&fifty, 75))
	assert.Equal(t, 0, ResolveThreshold(&zero, 75))
	assert.Equal(t, 60, ResolveThreshold(nil, 60))
	assert.Equal(t, DefaultThreshold, ResolveThreshold(nil, 0))
}
