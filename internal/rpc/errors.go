package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

// ToStatus maps a usecase error onto a gRPC status. Errors that already
// carry a status pass through.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}

func Code(err error) codes.Code {
	switch {
	case errors.Is(err, model.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, model.ErrTillNotFound),
		errors.Is(err, model.ErrSaleNotFound),
		errors.Is(err, model.ErrLineItemNotFound),
		errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrExpenseNotFound):
		return codes.NotFound
	case errors.Is(err, model.ErrTillNotOpen), errors.Is(err, model.ErrReconciliationRead):
		return codes.FailedPrecondition
	case errors.Is(err, model.ErrStaleStockUpdate):
		return codes.Aborted
	case errors.Is(err, database.ErrPoolExhausted):
		return codes.ResourceExhausted
	case errors.Is(err, database.ErrPoolClosed):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}
