package cv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/window"
)

var (
	// ErrTimeout is returned when a wait exceeds its deadline
	ErrTimeout = errors.New("wait timed out")
	// ErrCancelled is returned when the context is cancelled during a wait
	ErrCancelled = errors.New("wait cancelled")
)

const (
	DefaultPollInterval        = 200 * time.Millisecond
	DefaultHistogramThreshold  = 0.85
	DefaultBrightnessThreshold = 95.0
)

// ReferenceSource looks up stored reference histograms by element name
type ReferenceSource interface {
	Reference(name string) (Histogram, bool)
}

// WaitResult describes how a wait finished
type WaitResult struct {
	Skipped bool          // no reference stored, wait treated as satisfied
	Polls   int           // number of measurements taken
	Score   float64       // last similarity or brightness observed
	Elapsed time.Duration // time spent waiting
}

// Measurement is a single observation of a region
type Measurement struct {
	Brightness float64
	Histogram  Histogram
}

// Service runs detection against the target window
type Service struct {
	capturer            Capturer
	references          ReferenceSource
	pollInterval        time.Duration
	histogramThreshold  float64
	brightnessThreshold float64
	logger              *logging.Logger
}

// NewService creates a new detection service
func NewService(capturer Capturer, opts ...Option) *Service {
	s := &Service{
		capturer:            capturer,
		pollInterval:        DefaultPollInterval,
		histogramThreshold:  DefaultHistogramThreshold,
		brightnessThreshold: DefaultBrightnessThreshold,
		logger:              logging.NewLogger("Detector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasReference reports whether a reference is stored for name
func (s *Service) HasReference(name string) bool {
	if s.references == nil {
		return false
	}
	_, ok := s.references.Reference(name)
	return ok
}

// Measure captures region once and returns its brightness and histogram
func (s *Service) Measure(target window.Target, region Rect) (Measurement, error) {
	img, err := s.capturer.CaptureRegion(target, region)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		Brightness: Brightness(img),
		Histogram:  NewHistogram(img),
	}, nil
}

// SimilarityTo compares h with the stored reference for name
func (s *Service) SimilarityTo(name string, h Histogram) (float64, bool) {
	if s.references == nil {
		return 0, false
	}
	ref, ok := s.references.Reference(name)
	if !ok {
		return 0, false
	}
	return Similarity(ref, h), true
}

// WaitForAppearance polls region until its histogram matches the reference
// stored under name. Without a reference the wait is skipped.
func (s *Service) WaitForAppearance(ctx context.Context, target window.Target, name string, region Rect, timeout time.Duration) (WaitResult, error) {
	var ref Histogram
	ok := false
	if s.references != nil {
		ref, ok = s.references.Reference(name)
	}
	if !ok {
		s.logger.InfoWithContext("No reference stored, skipping appearance wait", map[string]interface{}{
			"reference": name,
		})
		return WaitResult{Skipped: true}, nil
	}

	return s.poll(ctx, timeout, func() (float64, bool, error) {
		img, err := s.capturer.CaptureRegion(target, region)
		if err != nil {
			return 0, false, err
		}
		score := Similarity(ref, NewHistogram(img))
		return score, score >= s.histogramThreshold, nil
	})
}

// WaitForBrightness polls region until its brightness exceeds the threshold
func (s *Service) WaitForBrightness(ctx context.Context, target window.Target, region Rect, timeout time.Duration) (WaitResult, error) {
	return s.poll(ctx, timeout, func() (float64, bool, error) {
		img, err := s.capturer.CaptureRegion(target, region)
		if err != nil {
			return 0, false, err
		}
		b := Brightness(img)
		return b, b > s.brightnessThreshold, nil
	})
}

// poll runs check every poll interval until it succeeds, fails, times out or
// ctx is cancelled. Cancellation is checked before anything else on every
// iteration.
func (s *Service) poll(ctx context.Context, timeout time.Duration, check func() (float64, bool, error)) (WaitResult, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	var res WaitResult

	for {
		if ctx.Err() != nil {
			res.Elapsed = time.Since(start)
			return res, ErrCancelled
		}

		score, done, err := check()
		res.Polls++
		res.Score = score
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("capture failed: %w", err)
		}
		if done {
			res.Elapsed = time.Since(start)
			s.logger.DebugWithContext("Wait satisfied", map[string]interface{}{
				"polls": res.Polls,
				"score": score,
			})
			return res, nil
		}

		if time.Now().After(deadline) {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("%w after %s (last score %.3f)", ErrTimeout, timeout, score)
		}

		if err := Sleep(ctx, s.pollInterval); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
	}
}

// Sleep pauses for d or until ctx is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-timer.C:
		return nil
	}
}
