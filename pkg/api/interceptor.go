package api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/cuemby/groupsched/pkg/log"
)

// LoggingInterceptor creates a gRPC unary interceptor that logs each call
// with its status code and duration
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	logger := log.WithComponent("grpc")
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("Handled gRPC call")

		return resp, err
	}
}
