package prompts

import (
	"fmt"
	"strings"

	"github.com/hupe1980/rolemesh/internal/util"
)

// Sentinel is the completion marker the director replies with once the
// executor has resolved the task.
const Sentinel = "TASK_DONE"

// LocalizedSentinel is the Chinese completion marker some models emit
// instead of Sentinel.
const LocalizedSentinel = "任务已完成"

// InitPrompt opens every session. It is attributed to the executor and sent
// to the director to request the first instruction.
const InitPrompt = "Now please give me instructions to solve over overall task step by step. If the task requires some specific knowledge, please instruct me to use tools to complete the task."

// DefaultQuery is used when a caller supplies no request of their own.
const DefaultQuery = "I'm looking for a casual yet authentic Japanese restaurant near Shibuya Station in Tokyo for dinner tonight. My budget is around ¥2,000–¥4,000, and I'm interested in sushi, ramen, or izakaya-style dishes. It should have good local reviews, an enjoyable atmosphere, and not be too fancy. Please recommend a few options."

const directorTemplate = `
===== RULES OF {{upper .Director}} =====
Never forget you are a {{.Director}} and I am a {{.Executor}}. Never flip roles! You will always instruct me. We share a common interest in collaborating to successfully complete a task.
I must help you to complete a difficult task.
You must instruct me based on my expertise and your needs to solve the task step by step. The format of your instruction is: ` + "`Instruction: [YOUR INSTRUCTION]`" + `, where "Instruction" describes a sub-task or question.
You must give me one instruction at a time.
I must write a response that appropriately solves the requested instruction.
You should instruct me not ask me questions.

Please note that the task may be very complicated. Do not attempt to solve the task by single step. You must instruct me to find the answer step by step.
Here are some tips that will help you to give more valuable instructions about our task to me:
<tips>
{{- if .Tools}}
- I can only use these tools: {{join ", " .Tools}}. Think about how a human would solve the task step by step with them, and instruct me just like that.
{{- else}}
- I have no external tools. Instruct me to reason carefully and explain every step.
{{- end}}
- Although the task is complex, the answer does exist. If you can't find the answer using the current scheme, try to re-plan and use other ways to find the answer, e.g. using other tools or methods that can achieve similar results.
- Always remind me to verify my final answer about the overall task, using more than one tool or method where possible.
- If I have written code, please remind me to run the code and get the result.
- Search results rarely contain precise answers. Queries should be concise and focus on finding sources rather than direct answers.
</tips>

Now, here is the overall task: <task>{{.Task}}</task>. Never forget our task!

Now you must start to instruct me to solve the task step-by-step. Do not add anything else other than your instruction!
Keep giving me instructions until you think the task is completed.
When the task is completed, you must only reply with a single word <{{.Sentinel}}>.
Never say <{{.Sentinel}}> unless my responses have solved your task.
`

const executorTemplate = `
===== RULES OF {{upper .Executor}} =====
Never forget you are a {{.Executor}} and I am a {{.Director}}. Never flip roles! Never instruct me! You have to utilize your available tools to solve the task I assigned.
We share a common interest in collaborating to successfully complete a complex task.
You must help me to complete the task.

Here is our overall task: {{.Task}}. Never forget our task!

I must instruct you based on your expertise and my needs to complete the task. An instruction is typically a sub-task or question.

You must leverage your available tools, try your best to solve the problem, and explain your solutions.
Unless I say the task is completed, you should always start with:
Solution: [YOUR_SOLUTION]
[YOUR_SOLUTION] should be specific, including detailed explanations and provide preferable detailed implementations and examples and lists for task-solving.
{{if .Tools}}
You may only use the following tools: {{join ", " .Tools}}. Never invent, assume or pretend to call any other tool.
{{else}}
You have no tools available. Never pretend to call one.
{{end}}
Please note that our overall task may be very complicated. Here are some tips that may help you solve the task:
<tips>
- If one way fails to provide an answer, try other ways or methods. The answer does exist.
- When looking for specific values (prices, ratings, opening hours), prioritize reliable sources and avoid relying only on snippets.
- Always verify the accuracy of your final answers! Try cross-checking the answers by other ways.
- Do not be overly confident in your own knowledge. Tool results can provide a broader perspective and help validate existing knowledge.
- When a tool fails to run, never assume that it returned the correct result and continue to reason based on the assumption. Think about the reason for the error and try again.
</tips>
`

const instructionSuffixTemplate = `

Here are auxiliary information about the overall task, which may help you understand the intent of the current task:
<auxiliary_information>
{{.Task}}
</auxiliary_information>
If there are available tools and you want to call them, never say 'I will ...', but first call the tool and reply based on tool call's result, and tell me which tool you have called.
`

const finalAnswerSuffixTemplate = `

Now please make a final answer of the original task based on our conversation : <task>{{.Task}}</task>
`

const solutionSuffixTemplate = `

Provide me with the next instruction and input (if needed) based on my response and our current task: <task>{{.Task}}</task>
Before producing the final answer, please check whether I have rechecked the final answer using different toolkit as much as possible. If not, please remind me to do that.
If I have written codes, remind me to run the codes.
If you think our task is done, reply with ` + "`{{.Sentinel}}`" + ` to end our conversation.
`

// Roles names the two participants for system message rendering.
type Roles struct {
	Director string
	Executor string
}

// DefaultRoles matches the role names used by the original dialogue.
var DefaultRoles = Roles{Director: "user", Executor: "assistant"}

func (r Roles) data(task string, tools []string) map[string]any {
	return map[string]any{
		"Director": r.Director,
		"Executor": r.Executor,
		"Task":     task,
		"Tools":    tools,
		"Sentinel": Sentinel,
	}
}

// DirectorSystemMessage returns the rules for the director: it only
// instructs, one step at a time, and replies with Sentinel once done.
func DirectorSystemMessage(task string, tools []string, roles Roles) string {
	return mustRender(directorTemplate, roles.data(task, tools))
}

// ExecutorSystemMessage returns the rules for the executor: it only acts,
// answers in "Solution:" form and may use only the listed tools.
func ExecutorSystemMessage(task string, tools []string, roles Roles) string {
	return mustRender(executorTemplate, roles.data(task, tools))
}

// InstructionSuffix is appended to a director message before it reaches the
// executor while the task is still in progress.
func InstructionSuffix(task string) string {
	return mustRender(instructionSuffixTemplate, map[string]any{"Task": task})
}

// FinalAnswerSuffix is appended to a director message that declares the task done.
func FinalAnswerSuffix(task string) string {
	return mustRender(finalAnswerSuffixTemplate, map[string]any{"Task": task})
}

// SolutionSuffix is appended to an executor message before it is relayed back
// to the director.
func SolutionSuffix(task string) string {
	return mustRender(solutionSuffixTemplate, map[string]any{"Task": task, "Sentinel": Sentinel})
}

// OutputLanguageRule is added to a system message to pin the reply language.
func OutputLanguageRule(language string) string {
	return fmt.Sprintf("Regardless of the input language, you must output text in %s.", language)
}

// WithOutputLanguage appends OutputLanguageRule to systemMessage when
// language is set.
func WithOutputLanguage(systemMessage, language string) string {
	if strings.TrimSpace(language) == "" {
		return systemMessage
	}
	return systemMessage + "\n" + OutputLanguageRule(language)
}

// ToolsNote is appended to a clarified request so both roles know the exact
// tool set connected at runtime.
func ToolsNote(tools []string) string {
	return fmt.Sprintf("\n\nNOTE: Only the following Google Maps tools are available: %s. Do not try to use any other tools like search_web, search_google, etc.", strings.Join(tools, ", "))
}

// TaskWithTools combines a request with ToolsNote.
func TaskWithTools(request string, tools []string) string {
	return request + ToolsNote(tools)
}

func mustRender(tmpl string, data map[string]any) string {
	out, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		panic(fmt.Sprintf("prompts: render template: %v", err))
	}
	return out
}
