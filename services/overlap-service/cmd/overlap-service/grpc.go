package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/md-rashed-zaman/tzoverlap/libs/config"
	"github.com/md-rashed-zaman/tzoverlap/libs/grpcx"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/grpcserver"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// startGrpcServer serves the overlap API on GRPC_PORT; GRPC_PORT=off disables it.
func startGrpcServer(ctx context.Context, logger *slog.Logger, svc *evaluator.Service) error {
	if config.String("GRPC_PORT", "") == "off" {
		logger.Info("grpc server disabled")
		return nil
	}
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpcx.NewServer([]grpc.UnaryServerInterceptor{grpcx.UnaryServerLoggingInterceptor(logger)})
	grpcserver.Register(srv, svc)
	healthpb.RegisterHealthServer(srv, health.NewServer())

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return nil
}
