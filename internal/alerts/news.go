package alerts

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

type headline struct {
	title   string
	message string
}

var headlines = []headline{
	{"Market Trends: E-commerce Growth Continues", "Online retail sales projected to grow 15% this quarter. Consider expanding digital channels."},
	{"Supply Chain Alert", "Potential delays in shipping from major suppliers. Review inventory levels for critical items."},
	{"Seasonal Demand Forecast", "Holiday shopping season approaching. Historical data shows 40% increase in electronics sales."},
	{"Competitor Analysis", "Major competitor launched promotional campaign. Monitor pricing strategies and customer feedback."},
	{"Consumer Behavior Shift", "Mobile shopping now accounts for 60% of online purchases. Optimize mobile experience."},
}

// NewsSource supplies external market alerts.
type NewsSource interface {
	Headlines(ctx context.Context, now time.Time) ([]Alert, error)
}

// MockNewsFeed returns one or two canned market headlines per call.
type MockNewsFeed struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockNewsFeed builds a feed seeded from seed.
func NewMockNewsFeed(seed int64) *MockNewsFeed {
	return &MockNewsFeed{rng: rand.New(rand.NewSource(seed))}
}

// Headlines implements NewsSource.
func (f *MockNewsFeed) Headlines(_ context.Context, now time.Time) ([]Alert, error) {
	f.mu.Lock()
	count := f.rng.Intn(2) + 1
	order := f.rng.Perm(len(headlines))
	f.mu.Unlock()

	out := make([]Alert, 0, count)
	for idx := 0; idx < count; idx++ {
		h := headlines[order[idx]]
		out = append(out, Alert{
			ID:        fmt.Sprintf("news-%d-%d", now.UnixMilli(), idx),
			Type:      TypeNews,
			Title:     h.title,
			Message:   h.message,
			Timestamp: now,
		})
	}
	return out, nil
}

// NoNews is a NewsSource that never returns items.
type NoNews struct{}

// Headlines implements NewsSource.
func (NoNews) Headlines(context.Context, time.Time) ([]Alert, error) { return nil, nil }
