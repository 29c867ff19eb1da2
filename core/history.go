package core

// ChatHistoryEntry records one completed round of the dialogue.
type ChatHistoryEntry struct {
	Director  string           `json:"user" yaml:"director"`
	Executor  string           `json:"assistant" yaml:"executor"`
	ToolCalls []map[string]any `json:"tool_calls" yaml:"tool_calls"`
}

// ToolCallMaps converts tool call records into the plain map form stored in
// the history.
func ToolCallMaps(records []ToolCallRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.AsMap())
	}
	return out
}
