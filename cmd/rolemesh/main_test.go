package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/rolemesh/config"
	"github.com/hupe1980/rolemesh/core"
	"github.com/hupe1980/rolemesh/logging"
	"github.com/hupe1980/rolemesh/mcp"
	"github.com/hupe1980/rolemesh/runner"
	"github.com/hupe1980/rolemesh/society"
	"github.com/hupe1980/rolemesh/tool"
)

func init() { color.NoColor = true }

func TestReadQueries(t *testing.T) {
	queries, err := readQueries(strings.NewReader("# dinner\nramen in Shibuya\n\n  sushi near Tsukiji  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ramen in Shibuya", "sushi near Tsukiji"}, queries)
}

func TestWriteResultsYAML(t *testing.T) {
	results := []runner.BatchResult{
		{Query: "ramen", Result: society.Result{Answer: "Ichiran", State: society.StateDoneNormal, Rounds: 2, Usage: core.TokenUsage{PromptTokens: 10, CompletionTokens: 5}}},
		{Query: "sushi", Error: "quota exceeded"},
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, writeResults(nil, path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	first := decoded[0]["result"].(map[string]any)
	assert.Equal(t, "DONE_NORMAL", first["state"])
	assert.Equal(t, "Ichiran", first["answer"])
	assert.Equal(t, "quota exceeded", decoded[1]["error"])

	var stdout bytes.Buffer
	require.NoError(t, writeResults(&stdout, "", results[:1]))
	assert.Contains(t, stdout.String(), "query: ramen")
}

func TestTranscript(t *testing.T) {
	var buf bytes.Buffer
	tr := newTranscript(&buf)

	info := society.RunInfo{RunID: "run-1", Task: "find ramen", ToolNames: []string{"maps_geocode"}}
	tr.RunStarted(info)
	tr.RoundCompleted(society.RoundEvent{Round: 1, Director: "Instruction: geocode", Executor: "Solution: 35.6", ToolCalls: 1, Duration: 1500 * time.Millisecond})
	tr.RoundCompleted(society.RoundEvent{Round: 2, Terminated: true})
	tr.RunFinished(info, society.Result{State: society.StateDoneTerminated, Rounds: 2, TerminationReasons: []string{"max_tokens_exceeded"}}, nil)

	out := buf.String()
	assert.Contains(t, out, "Tools: maps_geocode")
	assert.Contains(t, out, "--- round 1 (1.5s, 1 tool calls) ---")
	assert.Contains(t, out, "Director:\nInstruction: geocode")
	assert.Contains(t, out, "terminated")
	assert.Contains(t, out, "Finished: DONE_TERMINATED after 2 rounds (max_tokens_exceeded)")
}

func TestModelName(t *testing.T) {
	cfg := &config.Config{DirectorModel: "gpt-4o", ExecutorModel: "gpt-4o-mini"}

	assert.Equal(t, "gpt-4o", modelName(cfg, runner.PurposeClarifier))
	assert.Equal(t, "gpt-4o", modelName(cfg, runner.PurposeDirector))
	assert.Equal(t, "gpt-4o-mini", modelName(cfg, runner.PurposeExecutor))

	cfg.ClarifierModel = "o3"
	assert.Equal(t, "o3", modelName(cfg, runner.PurposeClarifier))
}

func TestModelFactoryUnsupportedProvider(t *testing.T) {
	_, err := modelFactory(t.Context(), &config.Config{Provider: "mistral"})(runner.PurposeDirector)
	assert.Error(t, err)
}

func TestToolProvider(t *testing.T) {
	logger := logging.NoOpLogger{}

	p, err := toolProvider(&config.Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &tool.StaticProvider{}, p)

	p, err = toolProvider(&config.Config{GoogleMapsAPIKey: "maps-key"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mcp.Toolkit{}, p)

	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"maps":{"command":"npx","args":["-y","@modelcontextprotocol/server-google-maps"]}}}`), 0o600))
	p, err = toolProvider(&config.Config{MCPConfigPath: path}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mcp.Toolkit{}, p)

	_, err = toolProvider(&config.Config{MCPConfigPath: filepath.Join(t.TempDir(), "missing.json")}, logger)
	assert.Error(t, err)
}
