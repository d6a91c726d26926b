package logging

import "sync"

// ProgressSampler thins progress updates for log output when no terminal bar
// is drawn. It passes the first update, every crossing of a percentage bucket,
// and completion.
type ProgressSampler struct {
	mu         sync.Mutex
	total      int
	bucketSize float64
	lastBucket int
}

// NewProgressSampler samples progress towards total in bucketSize percent
// steps (default 5).
func NewProgressSampler(total int, bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{total: total, bucketSize: bucketSize, lastBucket: -1}
}

// Observe records done items and returns the completed percentage and whether
// this update should be logged. The percentage is -1 when the total is
// unknown; then only the first update is logged. A nil sampler logs
// everything.
func (s *ProgressSampler) Observe(done int) (float64, bool) {
	if s == nil {
		return -1, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total <= 0 {
		first := s.lastBucket < 0
		s.lastBucket = 0
		return -1, first
	}
	percent := min(float64(done)*100/float64(s.total), 100)
	bucket := int(percent / s.bucketSize)
	if bucket <= s.lastBucket {
		return percent, false
	}
	s.lastBucket = bucket
	return percent, true
}
