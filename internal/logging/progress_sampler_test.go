package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(200, 25)
	steps := []struct {
		done    int
		percent float64
		want    bool
	}{
		{done: 2, percent: 1, want: true},
		{done: 40, percent: 20, want: false},
		{done: 50, percent: 25, want: true},
		{done: 60, percent: 30, want: false},
		{done: 160, percent: 80, want: true},
		{done: 199, percent: 99.5, want: false},
		{done: 200, percent: 100, want: true},
		{done: 200, percent: 100, want: false},
	}
	for _, step := range steps {
		percent, ok := s.Observe(step.done)
		if ok != step.want || percent != step.percent {
			t.Fatalf("Observe(%d) = (%v, %v), want (%v, %v)", step.done, percent, ok, step.percent, step.want)
		}
	}
}

func TestProgressSamplerDefaultBucket(t *testing.T) {
	for _, size := range []float64{0, -3} {
		if s := NewProgressSampler(10, size); s.bucketSize != 5 {
			t.Fatalf("bucket size %v: expected default 5, got %v", size, s.bucketSize)
		}
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(0, 5)
	if percent, ok := s.Observe(3); !ok || percent != -1 {
		t.Fatalf("expected first unknown-total update to log, got (%v, %v)", percent, ok)
	}
	if _, ok := s.Observe(9); ok {
		t.Fatal("expected later unknown-total updates to be dropped")
	}
}

func TestProgressSamplerClampsOvershoot(t *testing.T) {
	s := NewProgressSampler(4, 50)
	if percent, ok := s.Observe(6); !ok || percent != 100 {
		t.Fatalf("expected clamp to 100, got (%v, %v)", percent, ok)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if _, ok := s.Observe(1); !ok {
		t.Fatal("nil sampler should always log")
	}
}
