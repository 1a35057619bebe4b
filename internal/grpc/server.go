package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"todoManagement/internal/auth"
	"todoManagement/internal/config"
)

// NewServer builds a gRPC server exposing the token service and the standard
// health service behind the auth interceptor.
func NewServer(guard *auth.Guard, codec *auth.Codec, users auth.UserLookup) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(
		auth.NewUnaryAuthInterceptor(guard, auth.ActiveChain, healthCheckMethod, IntrospectMethod),
	))

	RegisterTokenServiceServer(srv, &TokenServer{Codec: codec, Users: users})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(TokenServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, guard *auth.Guard, codec *auth.Codec, users auth.UserLookup) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	// Plaintext; terminate TLS in front of the service.
	srv := NewServer(guard, codec, users)

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
