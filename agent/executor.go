package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/internal/util"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/tool"
)

// toolExecutor runs a batch of function calls, possibly in parallel. It must:
//   - return exactly one record and one response per call, in call order
//   - never panic (panics become tool errors)
//   - respect ctx cancellation
type toolExecutor struct {
	agent       core.AgentInfo
	runID       string
	tools       map[string]tool.Tool
	maxParallel int
	timeout     time.Duration
	logger      logging.Logger
}

func (e *toolExecutor) execute(ctx context.Context, calls []core.FunctionCall) ([]core.ToolCallRecord, []core.Part) {
	records := make([]core.ToolCallRecord, len(calls))

	if len(calls) == 1 {
		records[0] = e.executeOne(ctx, calls[0])
	} else {
		g := new(errgroup.Group)
		if e.maxParallel > 0 {
			g.SetLimit(e.maxParallel)
		}

		batchStart := time.Now()
		for i, fc := range calls {
			g.Go(func() error {
				records[i] = e.executeOne(ctx, fc)
				return nil
			})
		}
		_ = g.Wait()

		e.logger.Debug("agent.functions.batch.complete",
			"agent", e.agent.Name,
			"count", len(calls),
			"parallelism", e.maxParallel,
			"duration_ms", time.Since(batchStart).Milliseconds(),
		)
	}

	parts := make([]core.Part, len(records))
	for i, r := range records {
		parts[i] = core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:       r.ID,
			Name:     r.Name,
			Response: r.Result,
			Error:    r.Error,
		}}
	}

	return records, parts
}

func (e *toolExecutor) executeOne(ctx context.Context, fc core.FunctionCall) core.ToolCallRecord {
	record := core.ToolCallRecord{ID: fc.ID, Name: fc.Name}

	args, err := util.ParseArguments(fc.Arguments)
	if err != nil {
		record.Error = (&tool.ToolError{Tool: fc.Name, Message: err.Error(), Code: tool.CodeValidation}).Error()
		e.logger.Warn("agent.function.bad_arguments", "agent", e.agent.Name, "function", fc.Name, "error", err.Error())
		return record
	}
	record.Arguments = args

	if err := ctx.Err(); err != nil {
		record.Error = err.Error()
		return record
	}

	impl, ok := e.tools[fc.Name]
	if !ok {
		record.Error = tool.NewToolError(fc.Name, fmt.Sprintf("tool %s not found", fc.Name), tool.CodeNotFound).Error()
		e.logger.Warn("agent.function.unknown", "agent", e.agent.Name, "function", fc.Name)
		return record
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	toolCtx := core.NewToolContext(callCtx, e.runID, fc.ID, e.agent, e.logger)

	start := time.Now()
	result, err := func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &panicError{val: r, stack: debug.Stack()}
				e.logger.Error("agent.function.panic", "agent", e.agent.Name, "function", fc.Name, "recover", r)
			}
		}()
		return impl.Call(toolCtx, args)
	}()

	e.logger.Info("agent.function.executed",
		"agent", e.agent.Name,
		"function", fc.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("tool %s timed out after %s: %w", fc.Name, e.timeout, err)
		}
		record.Error = err.Error()
		return record
	}

	record.Result = result
	return record
}

type panicError struct {
	val   any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }
