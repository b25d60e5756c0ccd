package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/banshee-data/cloudsegment/internal/monitor"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/rpc"
)

// serve runs the debug HTTP and gRPC endpoints until ctx is cancelled.
func serve(ctx context.Context, s *session) error {
	var server *http.Server
	if s.opts.HTTPAddr != "" {
		mux := http.NewServeMux()
		var runs monitor.RunLister
		if s.runs != nil {
			runs = s.runs
		}
		monitor.New(s.tool, runs).AttachAdminRoutes(mux)
		if s.database != nil {
			if err := s.database.AttachAdminRoutes(mux); err != nil {
				return fmt.Errorf("attach db routes: %w", err)
			}
		}
		server = &http.Server{Addr: s.opts.HTTPAddr, Handler: mux}
	}

	var (
		lis net.Listener
		srv *grpc.Server
	)
	if s.opts.GRPCAddr != "" {
		var err error
		lis, err = net.Listen("tcp", s.opts.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		var store rpc.PolylineStore
		if s.polylines != nil {
			store = s.polylines
		}
		srv = grpc.NewServer()
		rpc.RegisterSegmentationServiceServer(srv, rpc.NewServer(s.tool, s.counter, store))
	}

	g, ctx := errgroup.WithContext(ctx)

	if server != nil {
		g.Go(func() error {
			monitoring.Logf("[HTTP] listening on %s", s.opts.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				monitoring.Logf("[HTTP] shutdown error: %v", err)
			}
			return nil
		})
	}

	if srv != nil {
		g.Go(func() error {
			monitoring.Logf("[gRPC] listening on %s", lis.Addr())
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			srv.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}
