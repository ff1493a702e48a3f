package rpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-till-service/internal/logger"
)

// LoggingInterceptor tags each call with a request id and logs its outcome.
func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := firstMetadata(ctx, MetadataRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, requestIDKey, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
			zap.String("terminal_id", TerminalID(ctx)),
			zap.Duration("elapsed", time.Since(start)),
		}
		code := status.Code(err)
		switch code {
		case codes.OK:
			log.Debug("rpc served", fields...)
		case codes.Internal, codes.Unknown, codes.DataLoss:
			log.Error("rpc failed", append(fields, zap.Stringer("code", code), zap.Error(err))...)
		default:
			log.Warn("rpc rejected", append(fields, zap.Stringer("code", code), zap.Error(err))...)
		}
		return resp, err
	}
}
