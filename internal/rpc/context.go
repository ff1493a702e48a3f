package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	MetadataTerminalID = "x-terminal-id"
	MetadataOperator   = "x-operator"
	MetadataRequestID  = "x-request-id"
)

type ctxKey int

const (
	terminalIDKey ctxKey = iota
	operatorKey
	requestIDKey
)

// TerminalID returns the calling terminal, from the context interceptor or
// straight from the incoming metadata.
func TerminalID(ctx context.Context) string {
	if val, ok := ctx.Value(terminalIDKey).(string); ok {
		return val
	}
	return firstMetadata(ctx, MetadataTerminalID)
}

// Operator is the person acting at the terminal; empty when not sent.
func Operator(ctx context.Context) string {
	if val, ok := ctx.Value(operatorKey).(string); ok {
		return val
	}
	return firstMetadata(ctx, MetadataOperator)
}

func RequestID(ctx context.Context) string {
	val, _ := ctx.Value(requestIDKey).(string)
	return val
}

func WithTerminalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, terminalIDKey, id)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}

// ContextInterceptor copies caller identity out of the metadata. Calls that
// carry no terminal id are attributed to defaultTerminal.
func ContextInterceptor(defaultTerminal string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		terminal := firstMetadata(ctx, MetadataTerminalID)
		if terminal == "" {
			terminal = defaultTerminal
		}
		ctx = context.WithValue(ctx, terminalIDKey, terminal)
		if op := firstMetadata(ctx, MetadataOperator); op != "" {
			ctx = context.WithValue(ctx, operatorKey, op)
		}
		return handler(ctx, req)
	}
}
