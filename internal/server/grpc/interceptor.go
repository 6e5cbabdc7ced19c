package grpc

import (
	"context"
	"errors"

	"github.com/fakhri2406/creadev/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			header = values[0]
		}
	}

	ctx, err := s.authenticator.AuthenticateContext(ctx, header)
	if err != nil {
		s.logger.Debug(ctx, "rejected call", "method", info.FullMethod, "error", err)
		return nil, toStatus(err)
	}

	return handler(ctx, req)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrAccessTokenRevoked):
		return status.Error(codes.Unauthenticated, common.ErrAccessTokenRevoked.Error())
	case errors.Is(err, common.ErrInvalidAccessToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidAccessToken.Error())
	case common.IsClientError(err):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
