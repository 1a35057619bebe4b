package grpcserver

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"todoManagement/internal/auth"
)

// TokenServer lets other services validate access tokens issued by this one.
type TokenServer struct {
	Codec *auth.Codec
	Users auth.UserLookup
}

var _ TokenServiceServer = (*TokenServer)(nil)

// Introspect reports whether an access token is currently usable.
// Invalid tokens and unknown or inactive users all answer {active: false}.
func (s *TokenServer) Introspect(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	inactive := &structpb.Struct{Fields: map[string]*structpb.Value{"active": structpb.NewBoolValue(false)}}
	claims, ok := s.Codec.Parse(in.GetValue(), auth.KindAccess)
	if !ok {
		return inactive, nil
	}
	u, err := s.Users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil || !u.IsActive {
		return inactive, nil
	}
	return structpb.NewStruct(map[string]any{
		"active":  true,
		"sub":     claims.Subject,
		"user_id": claims.UserID,
		"role":    string(u.Role),
		"exp":     claims.ExpiresAt.Unix(),
	})
}

// WhoAmI returns the caller resolved by the auth interceptor.
func (s *TokenServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	u, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing user")
	}
	return structpb.NewStruct(map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"role":        string(u.Role),
		"is_active":   u.IsActive,
		"is_verified": u.IsVerified,
	})
}
