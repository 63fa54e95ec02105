package rpc

import (
	"context"
	"errors"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "docshelf/internal/platform/errors"
)

// ToStatus maps document errors onto gRPC codes so FromStatus can restore
// the sentinel on the host side.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch {
	case errors.Is(err, apperrors.ErrClosed):
		code = codes.FailedPrecondition
	case errors.Is(err, apperrors.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, apperrors.ErrNotDocument):
		code = codes.DataLoss
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, os.ErrNotExist):
		code = codes.NotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	}
	return status.Error(code, err.Error())
}

type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.sentinel }

func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.FailedPrecondition:
		sentinel = apperrors.ErrClosed
	case codes.InvalidArgument:
		sentinel = apperrors.ErrInvalidInput
	case codes.DataLoss:
		sentinel = apperrors.ErrNotDocument
	case codes.NotFound:
		sentinel = os.ErrNotExist
	case codes.DeadlineExceeded:
		sentinel = context.DeadlineExceeded
	case codes.Canceled:
		sentinel = context.Canceled
	default:
		return err
	}
	return &remoteError{sentinel: sentinel, msg: st.Message()}
}
