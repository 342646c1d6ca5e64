package service

import (
	"log/slog"
	"time"

	"mythic_prison/internal/domain"
	"mythic_prison/internal/logger"
)

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

func millis(t time.Time) int64 { return t.UnixMilli() }

type common struct {
	now Clock
	log *slog.Logger
}

// Option configures the services that read time or log.
type Option func(*common)

// WithClock replaces the time source used for expiry and playtime.
func WithClock(c Clock) Option {
	return func(o *common) {
		if c != nil {
			o.now = c
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *common) {
		if l != nil {
			o.log = l
		}
	}
}

func newCommon(component string, opts []Option) common {
	c := common{now: systemClock, log: logger.With("component", component)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// DirtyMarker is told about every identity whose profile changed.
type DirtyMarker interface {
	MarkDirty(id domain.Identity)
}

// Markers fans a change notification out to several markers.
type Markers []DirtyMarker

func (m Markers) MarkDirty(id domain.Identity) {
	for _, d := range m {
		if d != nil {
			d.MarkDirty(id)
		}
	}
}
