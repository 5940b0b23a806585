// Package server wires the plan service, the HTTP API and the sync runner
// into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/studyplan/internal/profile"
	"github.com/hrygo/studyplan/server/internal/observability"
	"github.com/hrygo/studyplan/server/planner"
	apiv1 "github.com/hrygo/studyplan/server/router/api/v1"
	"github.com/hrygo/studyplan/server/runner/plansync"
	"github.com/hrygo/studyplan/server/service/plan"
	"github.com/hrygo/studyplan/server/timezone"
	"github.com/hrygo/studyplan/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile     *profile.Profile
	Store       *store.Store
	PlanService plan.Service

	echoServer *echo.Echo
	syncRunner *plansync.Runner
}

// NewServer builds the server on a migrated store.
func NewServer(_ context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		return nil, err
	}

	metrics := observability.GlobalMetrics()
	cfg := planner.DefaultConfig()
	cfg.AdaptIntervalsToPerformance = p.AdaptiveIntervals
	planService, err := plan.NewService(st, plan.Options{
		Timezone:    loc,
		Planner:     cfg,
		SyncEnabled: p.IsSyncEnabled(),
		Metrics:     metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create plan service: %w", err)
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	apiv1.NewAPIV1Service(p, planService, metrics).RegisterRoutes(echoServer)

	interval := p.SyncInterval
	if interval <= 0 {
		interval = profile.DefaultSyncInterval
	}
	return &Server{
		Profile:     p,
		Store:       st,
		PlanService: planService,
		echoServer:  echoServer,
		syncRunner: plansync.NewRunner(st, planService, plansync.Config{
			RemoteURL: p.SyncRemoteURL,
			Interval:  interval,
		}),
	}, nil
}

// Handler exposes the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Run serves the API and the sync runner until ctx is done or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("studyplan server started", "addr", addr, "version", s.Profile.Version, "mode", s.Profile.Mode)
		if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.syncRunner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.echoServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}
	slog.Info("studyplan server stopped")
	return errors.Join(errs...)
}
