package scoring

const (
	DefaultThreshold = 75

	StatusInterview = "Interview"
	StatusReview    = "Review"
)

// Router assigns the terminal status from the final score.
type Router struct {
	PassStatus   string
	ReviewStatus string
}

// NewRouter fills empty labels with the multi-tenant defaults.
func NewRouter(pass, review string) Router {
	if pass == "" {
		pass = StatusInterview
	}
	if review == "" {
		review = StatusReview
	}
	return Router{PassStatus: pass, ReviewStatus: review}
}

// Route sends a score at or above threshold to the pass status.
func (r Router) Route(finalScore, threshold int) string {
	if finalScore >= threshold {
		return r.PassStatus
	}
	return r.ReviewStatus
}

// ResolveThreshold returns the tenant threshold, or fallback when the tenant
// has none configured.
func ResolveThreshold(tenant *int, fallback int) int {
	if tenant != nil {
		return *tenant
	}
	if fallback == 0 {
		return DefaultThreshold
	}
	return fallback
}
