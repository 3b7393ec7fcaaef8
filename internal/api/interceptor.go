package api

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/matheus3301/chatrise/internal/auth"
	"github.com/matheus3301/chatrise/internal/rpc"
)

// Authenticator resolves bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// publicMethods need no session.
var publicMethods = map[string]bool{
	rpc.FullMethod(rpc.AuthServiceName, "Register"): true,
	rpc.FullMethod(rpc.AuthServiceName, "Login"):    true,
}

func bearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	token, found := strings.CutPrefix(vals[0], "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func authenticate(ctx context.Context, a Authenticator, method string) (context.Context, error) {
	if publicMethods[method] {
		return ctx, nil
	}
	id, err := a.Authenticate(ctx, bearer(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return auth.WithIdentity(ctx, id), nil
}

// UnaryInterceptor authenticates unary calls and converts component errors
// to gRPC statuses.
func UnaryInterceptor(a Authenticator, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, a, info.FullMethod)
		if err != nil {
			return nil, err
		}
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Debug("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, toStatus(err)
		}
		return resp, nil
	}
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }

// StreamInterceptor authenticates streaming calls.
func StreamInterceptor(a Authenticator, logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), a, info.FullMethod)
		if err != nil {
			return err
		}
		if err := handler(srv, &identityStream{ServerStream: ss, ctx: ctx}); err != nil {
			logger.Debug("stream ended", zap.String("method", info.FullMethod), zap.Error(err))
			return toStatus(err)
		}
		return nil
	}
}
