package iris

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// ServiceConfig tunes the scheduling cadence of the background import
// service. Zero values fall back to the defaults.
type ServiceConfig struct {
	// StationsSrc selects the station catalog source, see
	// Importer.ImportStations for the selector syntax.
	StationsSrc string

	// StatusCodesSrc selects the status code table source, see
	// codes.Load for the selector syntax. Empty skips the status
	// code import.
	StatusCodesSrc string

	// SingleStation restricts every import pass to one DS100 code.
	// Meant for development against a local database.
	SingleStation string

	// TickInterval is the pause between import passes.
	TickInterval time.Duration

	// FullReloadInterval is how often a tick is promoted to a full
	// planned-timetable reload instead of a change-feed pass.
	FullReloadInterval time.Duration

	// LookaheadHours is the planned-timetable window of a full
	// reload. FirstLookaheadHours applies to the very first reload
	// after startup, which has an empty day to backfill.
	LookaheadHours      int
	FirstLookaheadHours int
}

const (
	DefaultStationsSrc         = "API:https://bahnvorhersage.de/api/stations.json"
	DefaultTickInterval        = 20 * time.Minute
	DefaultFullReloadInterval  = 11 * time.Hour
	DefaultLookaheadHours      = 8
	DefaultFirstLookaheadHours = 12
)

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.StationsSrc == "" {
		c.StationsSrc = DefaultStationsSrc
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.FullReloadInterval <= 0 {
		c.FullReloadInterval = DefaultFullReloadInterval
	}
	if c.LookaheadHours <= 0 {
		c.LookaheadHours = DefaultLookaheadHours
	}
	if c.FirstLookaheadHours <= 0 {
		c.FirstLookaheadHours = DefaultFirstLookaheadHours
	}
	return c
}

// fullReloadTicks is the number of ticks between full reloads.
func (c ServiceConfig) fullReloadTicks() int {
	return int(c.FullReloadInterval / c.TickInterval)
}

// Service runs the periodic import loop: bootstrap stations and status
// codes once, then alternate between cheap change-feed passes every
// tick and full timetable reloads every FullReloadInterval. A Service
// is single use; once stopped it cannot be restarted.
type Service struct {
	importer *Importer
	cfg      ServiceConfig
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewService(importer *Importer, cfg ServiceConfig) *Service {
	return &Service{
		importer: importer,
		cfg:      cfg.withDefaults(),
		logger:   importer.Logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start bootstraps the reference data synchronously, then launches the
// import loop. A bootstrap failure is fatal: without stations or the
// status code table the loop has nothing to work on.
func (s *Service) Start(ctx context.Context) error {
	if _, err := s.importer.ImportStations(ctx, s.cfg.StationsSrc); err != nil {
		return errors.Wrap(err, "bootstrapping stations")
	}
	if s.cfg.StatusCodesSrc == "" {
		s.logger.Warn("no status codes source configured, skipping import")
	} else if _, err := s.importer.ImportStatusCodes(s.cfg.StatusCodesSrc); err != nil {
		return errors.Wrap(err, "bootstrapping status codes")
	}

	go s.run(ctx)
	return nil
}

// Stop signals the loop and blocks until the in-flight pass finished.
func (s *Service) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	threshold := s.cfg.fullReloadTicks()

	// Starting past the threshold forces a full reload on the very
	// first tick, so a fresh database is populated immediately.
	ticks := threshold + 1
	first := true

	for {
		s.count(func(m *Metrics) { m.Ticks.Inc() })

		if ticks > threshold {
			ticks = 0

			lookahead := s.cfg.LookaheadHours
			if first {
				lookahead = s.cfg.FirstLookaheadHours
				first = false
			}

			s.logger.Info("running full timetable reload", "lookahead_hours", lookahead)
			s.count(func(m *Metrics) { m.FullReloads.Inc() })
			if err := s.importer.ImportTimetableAll(ctx, time.Now(), lookahead, s.cfg.SingleStation); err != nil {
				s.logger.Error("full reload failed", "err", err)
			}
		} else {
			s.logger.Debug("running change feed pass")
			if err := s.importer.ImportChangesAll(ctx, time.Now(), s.cfg.SingleStation); err != nil {
				s.logger.Error("change pass failed", "err", err)
			}
		}
		ticks++

		select {
		case <-s.stop:
			return
		case <-time.After(s.cfg.TickInterval):
		}
	}
}

func (s *Service) count(c func(m *Metrics)) {
	if s.importer.Metrics != nil {
		c(s.importer.Metrics)
	}
}
