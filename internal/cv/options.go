package cv

import "time"

// Option configures a Service
type Option func(*Service)

// WithPollInterval sets the delay between two polls of a wait
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithHistogramThreshold sets the similarity required by appearance waits
func WithHistogramThreshold(t float64) Option {
	return func(s *Service) {
		s.histogramThreshold = t
	}
}

// WithBrightnessThreshold sets the brightness a region must exceed to count
// as enabled
func WithBrightnessThreshold(t float64) Option {
	return func(s *Service) {
		s.brightnessThreshold = t
	}
}

// WithReferences sets the source of stored reference histograms
func WithReferences(refs ReferenceSource) Option {
	return func(s *Service) {
		s.references = refs
	}
}
