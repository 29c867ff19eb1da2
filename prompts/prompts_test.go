package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const task = "Find ramen near Shibuya"

func TestDirectorSystemMessage(t *testing.T) {
	msg := DirectorSystemMessage(task, []string{"maps_geocode", "maps_search_places"}, DefaultRoles)

	assert.Contains(t, msg, "===== RULES OF USER =====")
	assert.Contains(t, msg, "<task>"+task+"</task>")
	assert.Contains(t, msg, "Instruction: [YOUR INSTRUCTION]")
	assert.Contains(t, msg, "maps_geocode, maps_search_places")
	assert.Contains(t, msg, "<TASK_DONE>")
	assert.Equal(t, msg, DirectorSystemMessage(task, []string{"maps_geocode", "maps_search_places"}, DefaultRoles))
}

func TestExecutorSystemMessage(t *testing.T) {
	roles := Roles{Director: "Planner", Executor: "Scout"}

	msg := ExecutorSystemMessage(task, []string{"maps_geocode"}, roles)
	assert.Contains(t, msg, "===== RULES OF SCOUT =====")
	assert.Contains(t, msg, "you are a Scout and I am a Planner")
	assert.Contains(t, msg, "Here is our overall task: "+task+".")
	assert.Contains(t, msg, "Solution: [YOUR_SOLUTION]")
	assert.Contains(t, msg, "You may only use the following tools: maps_geocode.")

	noTools := ExecutorSystemMessage(task, nil, roles)
	assert.Contains(t, noTools, "You have no tools available.")
	assert.NotContains(t, noTools, "You may only use")
}

func TestSuffixes(t *testing.T) {
	ins := InstructionSuffix(task)
	assert.True(t, strings.HasPrefix(ins, "\n\nHere are auxiliary information"))
	assert.Contains(t, ins, "<auxiliary_information>\n"+task+"\n</auxiliary_information>")
	assert.Contains(t, ins, "never say 'I will ...'")

	final := FinalAnswerSuffix(task)
	assert.Contains(t, final, "Now please make a final answer of the original task based on our conversation : <task>"+task+"</task>")
	assert.NotContains(t, final, Sentinel)

	sol := SolutionSuffix(task)
	assert.Contains(t, sol, "rechecked the final answer")
	assert.Contains(t, sol, "remind me to run the codes")
	assert.Contains(t, sol, "reply with `TASK_DONE`")
}

func TestOutputLanguage(t *testing.T) {
	assert.Equal(t, "sys", WithOutputLanguage("sys", ""))
	assert.Equal(t, "sys\nRegardless of the input language, you must output text in Japanese.", WithOutputLanguage("sys", "Japanese"))
}

func TestTaskWithTools(t *testing.T) {
	got := TaskWithTools("brief", []string{"maps_geocode", "maps_place_details"})
	assert.Equal(t, "brief\n\nNOTE: Only the following Google Maps tools are available: maps_geocode, maps_place_details. Do not try to use any other tools like search_web, search_google, etc.", got)
}

func TestClarifierPrompt(t *testing.T) {
	assert.True(t, strings.HasPrefix(ClarifierPrompt, "# Restaurant Request Clarifier"))
	assert.Contains(t, ClarifierPrompt, "## Output Format")
	assert.Contains(t, DefaultQuery, "Shibuya Station")
}
