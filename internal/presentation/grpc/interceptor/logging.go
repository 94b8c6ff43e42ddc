package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

// LoggingInterceptor 単項RPCの結果をログに出すインターセプター
// ヘルスチェックは頻度が高いため Debug で出す
func LoggingInterceptor(logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		}

		switch {
		case err != nil:
			logger.Error(ctx, "gRPC request failed", err, fields)
		case isHealthMethod(info.FullMethod):
			logger.Debug(ctx, "gRPC request completed", fields)
		default:
			logger.Info(ctx, "gRPC request completed", fields)
		}

		return resp, err
	}
}

func isHealthMethod(method string) bool {
	return method == "/grpc.health.v1.Health/Check" || method == "/grpc.health.v1.Health/List"
}
