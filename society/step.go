package society

import (
	"context"
	"fmt"

	"github.com/hupe1980/rolemesh/agent"
	"github.com/hupe1980/rolemesh/core"
)

// turn is the outcome of one Step. instruction and solution hold the agents'
// texts before augmentation; solution is also kept when the executor stopped
// with partial output.
type turn struct {
	speaker     core.AgentResponse
	listener    core.AgentResponse
	instruction string
	solution    string
}

// Step runs one turn. The director receives in and answers with an
// instruction; the executor receives an augmented copy of that instruction
// and answers with a solution.
//
// The returned speaker response carries the executor's output and listener
// the director's. When the director terminates or produces no message the
// executor is not invoked: speaker is empty and listener carries the
// director's terminated flag and info without messages. When the executor
// terminates or produces no message, speaker carries its flag and info and
// listener the director's message before augmentation.
//
// Each agent runs at most once and strictly one after the other. Agent errors
// are returned wrapped with the failing role.
func (s *Society) Step(ctx context.Context, in core.Message) (speaker, listener core.AgentResponse, err error) {
	t, err := s.step(ctx, in)
	return t.speaker, t.listener, err
}

func (s *Society) step(ctx context.Context, in core.Message) (turn, error) {
	directorResp, err := agent.Go(ctx, s.director.Agent, in).Await(ctx)
	if err != nil {
		return turn{}, fmt.Errorf("director %s: %w", s.director.Name, err)
	}

	instruction, ok := directorResp.Message()
	if directorResp.Terminated || !ok {
		s.logger.Debug("society.step.director_stopped", "terminated", directorResp.Terminated, "reasons", directorResp.Info.TerminationReasons)
		return turn{listener: core.AgentResponse{
			Terminated: directorResp.Terminated,
			Info:       directorResp.Info,
		}}, nil
	}

	augmentedInstruction := AugmentInstruction(instruction, s.task)

	executorResp, err := agent.Go(ctx, s.executor.Agent, augmentedInstruction).Await(ctx)
	if err != nil {
		return turn{}, fmt.Errorf("executor %s: %w", s.executor.Name, err)
	}

	solution, ok := executorResp.Message()
	if executorResp.Terminated || !ok {
		s.logger.Debug("society.step.executor_stopped", "terminated", executorResp.Terminated, "reasons", executorResp.Info.TerminationReasons)
		return turn{
			speaker: core.AgentResponse{
				Terminated: executorResp.Terminated,
				Info:       executorResp.Info,
			},
			listener: core.AgentResponse{
				Messages: []core.Message{instruction},
				Info:     directorResp.Info,
			},
			instruction: instruction.Content,
			solution:    solution.Content,
		}, nil
	}

	t := turn{instruction: instruction.Content, solution: solution.Content}

	if !IsFinalInstruction(instruction.Content) {
		solution = AugmentSolution(solution, s.task)
	}

	t.speaker = core.AgentResponse{
		Messages:   []core.Message{solution},
		Terminated: executorResp.Terminated,
		Info:       executorResp.Info,
	}
	t.listener = core.AgentResponse{
		Messages:   []core.Message{augmentedInstruction},
		Terminated: directorResp.Terminated,
		Info:       directorResp.Info,
	}

	return t, nil
}
