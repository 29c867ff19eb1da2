package society

import (
	"strings"

	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/prompts"
)

// DefaultSentinels end a session when found in a director reply.
var DefaultSentinels = []string{prompts.Sentinel, prompts.LocalizedSentinel}

// IsFinalInstruction reports whether a director message declares the task
// done. It selects which block AugmentInstruction appends.
func IsFinalInstruction(content string) bool {
	return strings.Contains(content, prompts.Sentinel)
}

// IsTaskDone reports whether content contains any of sentinels. It decides
// loop termination and is independent of IsFinalInstruction.
func IsTaskDone(content string, sentinels []string) bool {
	for _, s := range sentinels {
		if s != "" && strings.Contains(content, s) {
			return true
		}
	}
	return false
}

// AugmentInstruction returns a copy of a director message extended for the
// executor: the task as auxiliary information while work continues, or the
// final answer request once the director declared the task done.
func AugmentInstruction(msg core.Message, task string) core.Message {
	if IsFinalInstruction(msg.Content) {
		return msg.Append(prompts.FinalAnswerSuffix(task))
	}
	return msg.Append(prompts.InstructionSuffix(task))
}

// AugmentSolution returns a copy of an executor message extended with the
// reminder the director reads before its next instruction.
func AugmentSolution(msg core.Message, task string) core.Message {
	return msg.Append(prompts.SolutionSuffix(task))
}
