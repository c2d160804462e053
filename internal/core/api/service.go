// Package api provides the gRPC rule service.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/bamboorules/internal/core/metrics"
	"github.com/solatis/bamboorules/internal/rules"
	"github.com/solatis/bamboorules/internal/types"
)

// RuleStore is the stored-rule lookup the service needs.
// Implemented by *db.RuleStore.
type RuleStore interface {
	Logic(ctx context.Context, name string) (any, error)
}

// RuleService implements RuleServiceServer.
// Thin orchestration layer over the engine and the rule store.
type RuleService struct {
	engine  *rules.Engine
	store   RuleStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	timeout time.Duration
}

var _ RuleServiceServer = (*RuleService)(nil)

// NewRuleService creates the service. store may be nil, in which case
// EvaluateStored answers UNAVAILABLE; m may be nil to disable metrics.
// timeout bounds each request; 0 leaves only the caller's deadline.
func NewRuleService(engine *rules.Engine, store RuleStore, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) (*RuleService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleService{
		engine:  engine,
		store:   store,
		metrics: m,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Evaluate evaluates an inline rule.
// Request fields: rule (required), data, frames {name: [records]}.
func (s *RuleService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	return s.handle(ctx, "Evaluate", req, func(ctx context.Context, r *request) (any, error) {
		if r.rule == nil {
			return nil, fmt.Errorf("%w: rule is required", types.ErrTypeMismatch)
		}
		return s.execute(ctx, r.rule, r.data)
	})
}

// EvaluateStored evaluates a rule from the store.
// Request fields: name (required), data, frames {name: [records]}.
func (s *RuleService) EvaluateStored(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	return s.handle(ctx, "EvaluateStored", req, func(ctx context.Context, r *request) (any, error) {
		if err := types.ValidateRuleName(r.name); err != nil {
			return nil, fmt.Errorf("%w: %q", err, r.name)
		}
		if s.store == nil {
			return nil, fmt.Errorf("%w: no database configured", errStore)
		}
		logic, err := s.store.Logic(ctx, r.name)
		if err != nil {
			if errors.Is(err, types.ErrRuleNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", errStore, err)
		}
		return s.execute(ctx, logic, r.data)
	})
}

// handle applies the request deadline, records metrics and maps errors.
func (s *RuleService) handle(ctx context.Context, method string, req *structpb.Struct, run func(context.Context, *request) (any, error)) (*structpb.Value, error) {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := func() (any, error) {
		r, err := parseRequest(req)
		if err != nil {
			return nil, err
		}
		return run(ctx, r)
	}()

	var out *structpb.Value
	if err == nil {
		out, err = toWire(result)
	}

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome, err = toStatus(err)
		s.logger.Warn("Evaluation failed", "method", method, "outcome", outcome, "error", err)
	}
	if s.metrics != nil {
		s.metrics.Observe(method, outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// execute runs the engine under ctx. Evaluation itself is not
// interruptible; an expired deadline abandons the result.
func (s *RuleService) execute(ctx context.Context, rule, data any) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.engine.Execute(rule, data)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
