package logger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type key int

const (
	// KeyRequestID is the Request ID in the Context.
	KeyRequestID key = 0

	// KeyLogger is the Logger in the Context.
	KeyLogger key = 1

	// KeyContract is the address of the contract being invoked in the Context.
	KeyContract key = 2

	// KeyBase is the root Logger that request Loggers are derived from.
	KeyBase key = 3
)

// NewContext returns a fully configured Context with from a background
// Context, with a new RequestID set, and a Logger.
//
// The Logger will include the RequestID field.
func NewContext() context.Context {
	return ContextWithRequestID(context.Background(), "")
}

// ContextWithRequestID returns a fully configured Context from the given
// Context and RequestID.
//
// If the RequestID is an empty string, a RequestID will be generated.
//
// The Context will have a Logger, which will have the RequestID field set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if len(id) == 0 {
		uid, _ := uuid.NewRandom()
		id = uid.String()
	}

	ctx = context.WithValue(ctx, KeyRequestID, id)

	return ContextWithLogger(ctx, newLogger(ctx))
}

// ContextWithContract returns a Context whose Logger carries the contract address.
func ContextWithContract(ctx context.Context, contract string) context.Context {
	ctx = context.WithValue(ctx, KeyContract, contract)

	logger := NewLoggerFromContext(ctx).With(zap.String(fieldContract, contract))

	return ContextWithLogger(ctx, logger)
}

// ContextWithLogger adds the Logger to the Context.
func ContextWithLogger(ctx context.Context,
	logger *zap.Logger) context.Context {

	return context.WithValue(ctx, KeyLogger, logger)
}

// ContextWithNamedLogger returns a Context with a new named Logger.
func ContextWithNamedLogger(ctx context.Context, name string) context.Context {
	logger := NewLoggerFromContext(ctx).Named(name)

	return context.WithValue(ctx, KeyLogger, logger)
}

// RequestIDFromContext returns the request ID from the Context.
//
// If the value was not set in the Context, "unknown" is returned. This can
// help find callers that are not adding the RequestID.
func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(KeyRequestID)

	if v == nil {
		id, _ := uuid.NewRandom()
		return fmt.Sprintf("unknown/%s", id.String())
	}

	return v.(string)
}

// ContractFromContext returns the contract address if set, otherwise an empty string.
func ContractFromContext(ctx context.Context) string {
	v := ctx.Value(KeyContract)

	if v == nil {
		return ""
	}

	return v.(string)
}
