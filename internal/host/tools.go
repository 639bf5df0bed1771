package host

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"time"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/procshim-go/internal/errors"
	"github.com/wagiedev/procshim-go/internal/fetch"
	internalmcp "github.com/wagiedev/procshim-go/internal/mcp"
	"github.com/wagiedev/procshim-go/internal/unzip"
)

// statusResult is the payload of tools that report a status code.
type statusResult struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// lineResult is the payload of read_line.
type lineResult struct {
	Kind       string `json:"kind"`
	Line       string `json:"line,omitempty"`
	LineBase64 string `json:"line_base64,omitempty"`
	ExitCode   *int   `json:"exit_code,omitempty"`
}

type instanceArgs struct {
	ID string `json:"id"`
}

type execArgs struct {
	ID   string `json:"id"`
	Args []any  `json:"args"`
}

type readLineArgs struct {
	ID        string `json:"id"`
	TimeoutMS int64  `json:"timeout_ms"`
}

type downloadArgs struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type agentArgs struct {
	Agent string `json:"agent"`
}

type unzipArgs struct {
	Archive string `json:"archive"`
	Dest    string `json:"dest"`
}

// Tools returns an MCP tool server exposing every host operation.
func (h *Host) Tools() *internalmcp.ToolServer {
	server := internalmcp.NewToolServer(h.log, h.limits.ServerName, h.limits.ServerVersion)

	server.AddTool(
		internalmcp.NewTool("proc_new", "Create a process instance and return its id.",
			internalmcp.SimpleSchema(nil)),
		h.handleNew,
	)
	server.AddTool(
		internalmcp.NewTool("proc_free", "Free a process instance, killing any running child.",
			internalmcp.SimpleSchema(map[string]string{"id": "string"})),
		h.handleFree,
	)
	server.AddTool(
		internalmcp.NewTool("proc_state", "Report the lifecycle state of a process instance.",
			internalmcp.SimpleSchema(map[string]string{"id": "string"})),
		h.handleState,
	)
	server.AddTool(
		internalmcp.NewTool("exec_cmd",
			"Start a program on an instance. args[0] is the program; every element must be a string.",
			internalmcp.SimpleSchema(map[string]string{"id": "string", "args": "[]any"})),
		h.handleExec,
	)
	server.AddTool(
		internalmcp.NewTool("read_line",
			"Read the next stdout line of the running program, or its exit code once output has ended.",
			internalmcp.SimpleSchema(map[string]string{"id": "string", "timeout_ms": "int"}, "timeout_ms")),
		h.handleReadLine,
	)
	server.AddTool(
		internalmcp.NewTool("download_file", "Download a URL to a local file.",
			internalmcp.SimpleSchema(map[string]string{"url": "string", "path": "string"})),
		h.handleDownloadFile,
	)
	server.AddTool(
		internalmcp.NewTool("download_to_string", "Download a URL and return the body as text.",
			internalmcp.SimpleSchema(map[string]string{"url": "string"})),
		h.handleDownloadString,
	)
	server.AddTool(
		internalmcp.NewTool("download_to_array", "Download a URL and return the body base64 encoded.",
			internalmcp.SimpleSchema(map[string]string{"url": "string"})),
		h.handleDownloadArray,
	)
	server.AddTool(
		internalmcp.NewTool("set_agent", "Set the User-Agent used for downloads.",
			internalmcp.SimpleSchema(map[string]string{"agent": "string"})),
		h.handleSetAgent,
	)
	server.AddTool(
		internalmcp.NewTool("get_error", "Describe the outcome of the last download or unzip.",
			internalmcp.SimpleSchema(nil)),
		h.handleGetError,
	)
	server.AddTool(
		internalmcp.NewTool("unzip", "Extract a zip archive into a directory.",
			internalmcp.SimpleSchema(map[string]string{"archive": "string", "dest": "string"})),
		h.handleUnzip,
	)

	return server
}

// codeResult reports a process operation outcome. Failures are flagged as
// tool errors but still carry the structured code.
func codeResult(err error) (*mcp.CallToolResult, error) {
	code := errors.CodeOf(err)

	payload := statusResult{Code: int(code), Status: code.String()}
	if err != nil {
		payload.Message = err.Error()
	}

	result, merr := internalmcp.JSONResult(payload)
	if merr != nil {
		return nil, merr
	}

	result.IsError = err != nil

	return result, nil
}

func badArgs(err error) *mcp.CallToolResult {
	return internalmcp.ErrorResult("Invalid arguments: " + err.Error())
}

func (h *Host) handleNew(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := h.NewInstance()
	if err != nil {
		return codeResult(err)
	}

	return internalmcp.JSONResult(map[string]string{"id": id})
}

func (h *Host) handleFree(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in instanceArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	return codeResult(h.FreeInstance(in.ID))
}

func (h *Host) handleState(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in instanceArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	state, err := h.State(in.ID)
	if err != nil {
		return codeResult(err)
	}

	return internalmcp.JSONResult(map[string]string{"state": state.String()})
}

func (h *Host) handleExec(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in execArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	return codeResult(h.Exec(ctx, in.ID, in.Args))
}

func (h *Host) handleReadLine(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in readLineArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	res, err := h.ReadLine(ctx, in.ID, time.Duration(in.TimeoutMS)*time.Millisecond)

	switch {
	case err == nil:
	case in.TimeoutMS > 0 && stderrors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// Nothing complete yet; the partial line stays buffered.
		return internalmcp.JSONResult(lineResult{Kind: "timeout"})
	default:
		return codeResult(err)
	}

	if res.IsExited() {
		code := res.ExitCode

		return internalmcp.JSONResult(lineResult{Kind: "exited", ExitCode: &code})
	}

	out := lineResult{Kind: "line", Line: res.Text()}
	if !utf8.Valid(res.Line) {
		out.LineBase64 = base64.StdEncoding.EncodeToString(res.Line)
	}

	return internalmcp.JSONResult(out)
}

func (h *Host) handleDownloadFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in downloadArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		h.record(badRequest(err))

		return badArgs(err), nil
	}

	n, err := h.DownloadFile(ctx, in.URL, in.Path)
	if err != nil {
		return internalmcp.ErrorResult(fetch.Describe(err)), nil
	}

	return internalmcp.JSONResult(map[string]any{"ok": true, "bytes": n})
}

func (h *Host) handleDownloadString(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in downloadArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		h.record(badRequest(err))

		return badArgs(err), nil
	}

	data, err := h.DownloadBytes(ctx, in.URL)
	if err != nil {
		return internalmcp.ErrorResult(fetch.Describe(err)), nil
	}

	return internalmcp.TextResult(string(data)), nil
}

func (h *Host) handleDownloadArray(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in downloadArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		h.record(badRequest(err))

		return badArgs(err), nil
	}

	data, err := h.DownloadBytes(ctx, in.URL)
	if err != nil {
		return internalmcp.ErrorResult(fetch.Describe(err)), nil
	}

	return internalmcp.JSONResult(map[string]any{
		"data": base64.StdEncoding.EncodeToString(data),
		"size": len(data),
	})
}

func (h *Host) handleSetAgent(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in agentArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	h.SetUserAgent(in.Agent)

	return internalmcp.JSONResult(map[string]any{"ok": true})
}

func (h *Host) handleGetError(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := h.LastError()

	payload := statusResult{Status: fetch.StatusOK.String(), Message: fetch.Describe(nil)}

	if err != nil {
		if _, ok := stderrors.AsType[*errors.ExtractError](err); ok {
			status := unzip.StatusOf(err)
			payload = statusResult{Code: int(status), Status: status.String(), Message: err.Error()}
		} else {
			status := fetch.StatusOf(err)
			payload = statusResult{Code: int(status), Status: status.String(), Message: fetch.Describe(err)}
		}
	}

	return internalmcp.JSONResult(payload)
}

func (h *Host) handleUnzip(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in unzipArgs
	if err := internalmcp.DecodeArguments(req, &in); err != nil {
		return badArgs(err), nil
	}

	n, err := h.Unzip(ctx, in.Archive, in.Dest)
	status := unzip.StatusOf(err)

	payload := map[string]any{"code": int(status), "status": status.String(), "files": n}
	if err != nil {
		payload["message"] = err.Error()
	}

	result, merr := internalmcp.JSONResult(payload)
	if merr != nil {
		return nil, merr
	}

	result.IsError = err != nil

	return result, nil
}

func badRequest(err error) error {
	return stderrors.Join(fetch.ErrBadRequest, err)
}
