package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/bamboorules/internal/core/metrics"
	"github.com/solatis/bamboorules/internal/types"
)

// errStore marks failures of the rule store, as opposed to bad rules.
var errStore = errors.New("rule store unavailable")

// toStatus maps an evaluation error to a metrics outcome and a gRPC status.
// Store failures map to UNAVAILABLE, missing rules to NOT_FOUND, expired
// deadlines to DEADLINE_EXCEEDED; anything else is a rule or data error
// and maps to INVALID_ARGUMENT.
func toStatus(err error) (string, error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeError, status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeError, status.Error(codes.Canceled, err.Error())
	case errors.Is(err, types.ErrRuleNotFound):
		return metrics.OutcomeNotFound, status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errStore):
		return metrics.OutcomeError, status.Error(codes.Unavailable, err.Error())
	default:
		return metrics.OutcomeRejected, status.Error(codes.InvalidArgument, err.Error())
	}
}
