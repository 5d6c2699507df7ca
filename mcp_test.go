package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, input string) (*MCPServer, *bytes.Buffer) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewMCPServer("test", logger, BatchArgs{})
	out := &bytes.Buffer{}
	server.SetStdin(strings.NewReader(input))
	server.SetStdout(out)
	return server, out
}

func runServer(t *testing.T, requests ...string) []map[string]interface{} {
	t.Helper()
	server, out := newTestServer(t, strings.Join(requests, "\n")+"\n")
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var responses []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var msg map[string]interface{}
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("response is not JSON: %q", line)
		}
		responses = append(responses, msg)
	}
	return responses
}

func toolText(t *testing.T, response map[string]interface{}) (string, bool) {
	t.Helper()
	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("no result in %v", response)
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content in %v", result)
	}
	text, _ := content[0].(map[string]interface{})["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError
}

func TestMCPServerHandshake(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3 (notifications get none)", len(responses))
	}

	initResult := responses[0]["result"].(map[string]interface{})
	if initResult["protocolVersion"] != mcpProtocolVersion {
		t.Fatalf("protocolVersion = %v", initResult["protocolVersion"])
	}
	if name := initResult["serverInfo"].(map[string]interface{})["name"]; name != "skinny-jeans" {
		t.Fatalf("serverInfo.name = %v", name)
	}

	tools := responses[1]["result"].(map[string]interface{})["tools"].([]interface{})
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	want := "toon_read_file,toon_read_json,toon_estimate_tokens,toon_list_files,toon_batch_estimate"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("tools = %s, want %s", got, want)
	}

	if responses[2]["id"] != float64(3) || responses[2]["error"] != nil {
		t.Fatalf("ping response = %v", responses[2])
	}
}

func TestMCPServerToolCalls(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"toon_estimate_tokens","arguments":{"text":"hello world"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"toon_read_file","arguments":{"path":"testdata/sample.py"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"toon_read_file","arguments":{"path":"testdata/missing.py"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"toon_list_files","arguments":{"path":"testdata","pattern":"*.json"}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"toon_batch_estimate","arguments":{"paths":["testdata"]}}}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"toon_batch_estimate","arguments":{}}}`,
	)
	if len(responses) != 6 {
		t.Fatalf("got %d responses, want 6", len(responses))
	}

	if text, isError := toolText(t, responses[0]); isError || text != "Estimated tokens: ~2" {
		t.Fatalf("estimate = %q (isError %v)", text, isError)
	}

	text, isError := toolText(t, responses[1])
	if isError || !strings.HasPrefix(text, "[skinny-jeans: ") || strings.Contains(text, "# Utility") {
		t.Fatalf("read_file = %q (isError %v)", text, isError)
	}

	if text, isError := toolText(t, responses[2]); !isError || !strings.HasPrefix(text, "Error: ") {
		t.Fatalf("missing file = %q (isError %v)", text, isError)
	}

	if text, _ := toolText(t, responses[3]); !strings.HasPrefix(text, "sample.json (") {
		t.Fatalf("list_files = %q", text)
	}

	if text, isError := toolText(t, responses[4]); isError || !strings.HasPrefix(text, "Token Savings Report (") {
		t.Fatalf("batch = %q (isError %v)", text, isError)
	}

	if _, isError := toolText(t, responses[5]); !isError {
		t.Fatal("batch without paths should be a tool error")
	}
}

func TestMCPServerProtocolErrors(t *testing.T) {
	responses := runServer(t,
		`{not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"no_such_tool"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":4}`,
	)
	if len(responses) != 5 {
		t.Fatalf("got %d responses, want 5", len(responses))
	}

	wantCodes := []float64{ParseError, MethodNotFound, InvalidParams, InvalidParams, InvalidRequest}
	for i, code := range wantCodes {
		errObj, ok := responses[i]["error"].(map[string]interface{})
		if !ok {
			t.Fatalf("response %d has no error: %v", i, responses[i])
		}
		if errObj["code"] != code {
			t.Errorf("response %d code = %v, want %v", i, errObj["code"], code)
		}
	}
}

func TestMCPServerReadJSONOptions(t *testing.T) {
	responses := runServer(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"toon_read_json","arguments":{"path":"testdata/sample.json"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"toon_read_json","arguments":{"path":"testdata/sample.json","delimiter":"pipe"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"toon_read_json","arguments":{"path":"testdata/sample.json","keyFolding":"sometimes"}}}`,
	)
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}

	if text, isError := toolText(t, responses[0]); isError || !strings.Contains(text, "2\tBob\tuser") {
		t.Fatalf("default read_json = %q (isError %v)", text, isError)
	}
	if text, isError := toolText(t, responses[1]); isError || !strings.Contains(text, "2|Bob|user") {
		t.Fatalf("pipe read_json = %q (isError %v)", text, isError)
	}
	if _, isError := toolText(t, responses[2]); !isError {
		t.Fatal("unknown keyFolding should be a tool error")
	}
}
