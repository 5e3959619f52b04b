package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	faultDatamodel "github.com/frahmantamala/fault-tracker/internal/core/datamodel/fault"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	gocache "github.com/patrickmn/go-cache"
)

type FaultReader interface {
	GetAll(ctx context.Context) ([]*faultDatamodel.Fault, error)
}

// Sink receives rendered summaries.
type Sink interface {
	WriteSummary(ctx context.Context, s Summary, hint string) error
}

// Observer is told how long each uncached summary took to build.
type Observer interface {
	ObserveSummary(d time.Duration)
}

type Service struct {
	faults   FaultReader
	refs     fault.References
	cache    *gocache.Cache
	sink     Sink
	observer Observer
	now      clock.Clock
	logger   *slog.Logger

	// generation is bumped by every Invalidate; a result computed across a
	// bump is returned but not cached.
	genMu      sync.Mutex
	generation uint64
}

type Option func(*Service)

func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.now = c }
}

// NewService builds a summary service. A zero ttl disables caching.
func NewService(faults FaultReader, refs fault.References, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		faults: faults,
		refs:   refs,
		now:    clock.Now,
		logger: logger,
	}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(a actor.Actor, w Window) string {
	return fmt.Sprintf("%d:%s:%04d-%02d", a.UserID, a.Role, w.Year, w.Month)
}

// Summarize returns the summary of the faults a can see inside w.
func (s *Service) Summarize(ctx context.Context, a actor.Actor, w Window) (Summary, error) {
	if !a.Valid() {
		return Summary{}, errors.ErrInvalidCredential
	}

	key := cacheKey(a, w)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(Summary), nil
		}
	}

	gen := s.currentGeneration()
	started := time.Now()
	faults, refs, err := s.snapshot(ctx, a)
	if err != nil {
		s.logger.Error("failed to load summary snapshot", "error", err, "user_id", a.UserID)
		return Summary{}, err
	}

	result := Summarize(faults, refs, w)
	if s.observer != nil {
		s.observer.ObserveSummary(time.Since(started))
	}
	s.store(key, result, gen)

	s.logger.Debug("summary computed", "user_id", a.UserID, "window", w.String(), "total", result.Total)
	return result, nil
}

// SummarizeSpec parses the window spec and summarizes it.
func (s *Service) SummarizeSpec(ctx context.Context, a actor.Actor, month, year string) (Summary, error) {
	w, err := ParseWindow(month, year, s.now())
	if err != nil {
		return Summary{}, err
	}
	return s.Summarize(ctx, a, w)
}

// ExportSummary renders the summary through the report sink and returns the
// file name hint used.
func (s *Service) ExportSummary(ctx context.Context, a actor.Actor, w Window) (string, error) {
	result, err := s.Summarize(ctx, a, w)
	if err != nil {
		return "", err
	}
	if s.sink == nil {
		return "", errors.ErrReportFailed.WithMessage("no report sink configured")
	}

	hint := "Dashboard_" + w.MonthName()
	if err := s.sink.WriteSummary(ctx, result, hint); err != nil {
		s.logger.Error("failed to export summary", "error", err, "window", w.String())
		if _, ok := errors.IsAppError(err); ok {
			return "", err
		}
		return "", errors.ErrReportFailed.WithCause(err)
	}
	return hint, nil
}

// Invalidate drops every cached summary. It is subscribed to fault and
// catalog events.
func (s *Service) Invalidate(_ context.Context, e events.Event) error {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Flush()
		s.logger.Debug("summary cache flushed", "event_type", e.EventType())
	}
	return nil
}

func (s *Service) currentGeneration() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generation
}

// store caches result unless an invalidation landed after gen was read.
func (s *Service) store(key string, result Summary, gen uint64) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generation != gen {
		s.logger.Debug("summary not cached, data changed while computing", "key", key)
		return
	}
	s.cache.SetDefault(key, result)
}

func (s *Service) snapshot(ctx context.Context, a actor.Actor) ([]*fault.Fault, References, error) {
	rows, err := s.faults.GetAll(ctx)
	if err != nil {
		return nil, References{}, err
	}
	visible := fault.Visible(fault.FromDataModels(rows), a)

	sections, err := s.refs.Sections.GetAll(ctx)
	if err != nil {
		return nil, References{}, err
	}
	machines, err := s.refs.Machines.GetAll(ctx)
	if err != nil {
		return nil, References{}, err
	}
	users, err := s.refs.Users.GetAll(ctx)
	if err != nil {
		return nil, References{}, err
	}

	var refs References
	for _, sec := range sections {
		refs.Sections = append(refs.Sections, Ref{ID: sec.ID, Name: sec.Name})
	}
	for _, m := range machines {
		refs.Machines = append(refs.Machines, Ref{ID: m.ID, Name: m.Name})
	}
	for _, u := range users {
		refs.Users = append(refs.Users, Person{
			ID:   u.ID,
			Name: strings.TrimSpace(u.Name + " " + u.Surname),
			Role: actor.Role(u.Role),
		})
	}
	return visible, refs, nil
}
