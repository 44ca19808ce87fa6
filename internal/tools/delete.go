package tools

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
)

// DeleteToolName is the name of the delete tool.
const DeleteToolName = "delete"

// DeleteParams are the parameters for the delete tool.
type DeleteParams struct {
	FilePath string `json:"file_path" description:"The absolute path to the file to delete"`
}

// DeleteResponseMetadata provides metadata about the delete operation.
type DeleteResponseMetadata struct {
	FilePath string `json:"file_path"`
}

const deleteDescription = `Deletes a file from the local filesystem.

Usage:
- The file_path parameter must be an absolute path, not a relative path
- This tool can only delete files, not directories
- The file must exist`

// NewDeleteTool creates a new delete tool.
func NewDeleteTool(workingDir string) fantasy.AgentTool {
	return fantasy.NewAgentTool(
		DeleteToolName,
		deleteDescription,
		func(ctx context.Context, params DeleteParams, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
			if params.FilePath == "" {
				return fantasy.NewTextErrorResponse("file_path is required"), nil
			}

			filePath := ResolvePath(workingDir, params.FilePath)

			fileInfo, err := os.Stat(filePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fantasy.NewTextErrorResponse(fmt.Sprintf("File not found: %s", filePath)), nil
				}
				return fantasy.ToolResponse{}, fmt.Errorf("error accessing file: %w", err)
			}

			if fileInfo.IsDir() {
				return fantasy.NewTextErrorResponse(fmt.Sprintf("Path is a directory, not a file: %s", filePath)), nil
			}

			if err := os.Remove(filePath); err != nil {
				return fantasy.ToolResponse{}, fmt.Errorf("error deleting file: %w", err)
			}

			return fantasy.WithResponseMetadata(
				fantasy.NewTextResponse(fmt.Sprintf("File deleted: %s", filePath)),
				DeleteResponseMetadata{FilePath: filePath},
			), nil
		})
}
