// Package grpc runs the gRPC endpoint of the auth server. It carries the
// standard health service; every call passes through the same request
// authenticator as the REST API, reading the "authorization" metadata key.
package grpc

import (
	"context"
	"net"

	"github.com/fakhri2406/creadev/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator resolves the caller from an authorization header value.
type Authenticator interface {
	AuthenticateContext(ctx context.Context, header string) (context.Context, error)
}

type GRPCServer struct {
	address       string
	authenticator Authenticator
	health        *health.Server
	logger        logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, authn Authenticator) (*GRPCServer, error) {
	return &GRPCServer{
		address:       a,
		authenticator: authn,
		health:        health.NewServer(),
		logger:        l.With("module", "grpc_server"),
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	// registers service
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
