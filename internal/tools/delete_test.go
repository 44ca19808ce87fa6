package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"charm.land/fantasy"
)

func TestDeleteTool(t *testing.T) {
	tmpDir := t.TempDir()

	tool := NewDeleteTool(tmpDir)
	ctx := context.Background()

	t.Run("delete existing file", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "doomed.txt")
		if err := os.WriteFile(testFile, []byte("bye"), 0o600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		resp, err := invokeDeleteTool(ctx, tool, DeleteParams{FilePath: testFile})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if resp.IsError {
			t.Fatalf("Unexpected error response: %s", getTextContent(resp))
		}

		if _, err := os.Stat(testFile); !os.IsNotExist(err) {
			t.Error("Expected file to be removed")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		resp, err := invokeDeleteTool(ctx, tool, DeleteParams{
			FilePath: filepath.Join(tmpDir, "nonexistent.txt"),
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !resp.IsError {
			t.Error("Expected error response for nonexistent file")
		}

		respText := getTextContent(resp)
		if !strings.Contains(respText, "not found") {
			t.Errorf("Expected 'not found' in error, got: %s", respText)
		}
	})

	t.Run("delete directory fails", func(t *testing.T) {
		dirPath := filepath.Join(tmpDir, "keepdir")
		if err := os.MkdirAll(dirPath, 0o750); err != nil {
			t.Fatalf("Failed to create test directory: %v", err)
		}

		resp, err := invokeDeleteTool(ctx, tool, DeleteParams{FilePath: dirPath})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !resp.IsError {
			t.Error("Expected error response when deleting a directory")
		}

		respText := getTextContent(resp)
		if !strings.Contains(respText, "directory") {
			t.Errorf("Expected 'directory' in error, got: %s", respText)
		}

		if _, err := os.Stat(dirPath); err != nil {
			t.Error("Directory should still exist")
		}
	})

	t.Run("empty file_path", func(t *testing.T) {
		resp, err := invokeDeleteTool(ctx, tool, DeleteParams{FilePath: ""})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if !resp.IsError {
			t.Error("Expected error response for empty file_path")
		}
	})

	t.Run("relative path resolves against working dir", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "relative.txt")
		if err := os.WriteFile(testFile, []byte("bye"), 0o600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		resp, err := invokeDeleteTool(ctx, tool, DeleteParams{FilePath: "relative.txt"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if resp.IsError {
			t.Fatalf("Unexpected error response: %s", getTextContent(resp))
		}

		if _, err := os.Stat(testFile); !os.IsNotExist(err) {
			t.Error("Expected file to be removed")
		}
	})
}

func invokeDeleteTool(ctx context.Context, tool fantasy.AgentTool, params DeleteParams) (fantasy.ToolResponse, error) {
	inputJSON, err := json.Marshal(params)
	if err != nil {
		return fantasy.ToolResponse{}, err
	}

	call := fantasy.ToolCall{
		ID:    "test-call",
		Name:  DeleteToolName,
		Input: string(inputJSON),
	}
	return tool.Run(ctx, call)
}
