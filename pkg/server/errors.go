package server

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cardroom/holdem/pkg/poker"
	"github.com/cardroom/holdem/pkg/server/internal/db"
)

// mapActionErr translates game-rule violations into API status codes:
// acting with no hand running is a precondition failure, acting out of
// turn is a permission problem, an illegal action is a bad argument.
func mapActionErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, poker.ErrNoHand):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, poker.ErrNotPlayersTurn):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, poker.ErrInvalidAction):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// mapStoreErr translates storage failures: missing documents surface as
// not-found, exhausted optimistic retries as aborted.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, db.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(codes.Internal, err.Error())
	}
}
