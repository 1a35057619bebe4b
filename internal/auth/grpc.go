package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"todoManagement/internal/apperr"
)

// TokenFromMD extracts a Bearer token from incoming gRPC metadata.
func TokenFromMD(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return BearerToken(vals[0])
}

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that runs the guard
// chain on the Bearer token in incoming metadata and injects the user into the
// context. Methods listed in allowUnauthenticated bypass authentication
// (e.g., health checks).
func NewUnaryAuthInterceptor(g *Guard, chain []Check, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		u, err := g.Require(ctx, TokenFromMD(ctx), chain...)
		if err != nil {
			return nil, GRPCError(err)
		}
		return handler(WithUser(ctx, u), req)
	}
}

// GRPCError converts err into a gRPC status using its apperr kind.
func GRPCError(err error) error {
	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindInternal {
			return status.Error(codes.Internal, "internal error")
		}
		return status.Error(apperr.GRPCCode(e.Kind), e.Message)
	}
	return status.Error(codes.Internal, "internal error")
}
