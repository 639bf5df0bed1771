//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	internalmcp "github.com/wagiedev/procshim-go/internal/mcp"
)

func connect(t *testing.T, ctx context.Context) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "0.0.1"}, nil)

	cs, err := client.Connect(ctx, &mcp.CommandTransport{Command: exec.Command(binary, "serve")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callJSON(t *testing.T, ctx context.Context, cs *mcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(internalmcp.TextOf(res)), &out))

	return out
}

// TestServe_ReadLinesOverStdio drives a child through the stdio MCP server.
func TestServe_ReadLinesOverStdio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cs := connect(t, ctx)

	id := callJSON(t, ctx, cs, "proc_new", nil)["id"]
	require.NotEmpty(t, id)

	out := callJSON(t, ctx, cs, "exec_cmd", map[string]any{"id": id, "args": []any{"printf", `a\nb\nc`}})
	require.Equal(t, "ok", out["status"])

	var lines []any

	for {
		out = callJSON(t, ctx, cs, "read_line", map[string]any{"id": id, "timeout_ms": 5000})
		if out["kind"] == "exited" {
			require.Equal(t, float64(0), out["exit_code"])

			break
		}

		require.Equal(t, "line", out["kind"])
		lines = append(lines, out["line"])
	}

	require.Equal(t, []any{"a", "b", "c"}, lines)
}

// TestServe_ChildCannotReadProtocolStream checks that children never see
// the server's stdin.
func TestServe_ChildCannotReadProtocolStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cs := connect(t, ctx)

	id := callJSON(t, ctx, cs, "proc_new", nil)["id"]
	callJSON(t, ctx, cs, "exec_cmd", map[string]any{"id": id, "args": []any{"cat"}})

	out := callJSON(t, ctx, cs, "read_line", map[string]any{"id": id, "timeout_ms": 5000})
	require.Equal(t, "exited", out["kind"])

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err, "protocol stream still intact")
	require.NotEmpty(t, tools.Tools)
}
