// Package classify maps tool invocations to file operation categories.
//
// A tool name alone does not say what a call actually does to the
// filesystem: "write" is a create when the target does not exist yet and a
// modify when it does. Classify returns a provisional category from an
// explicit tool table; ambiguous write-style calls are resolved later
// against session file-tracking state. The same table backs the name-based
// heuristic used when reporting on sessions recorded before operation
// tracking existed, so the live and legacy paths cannot drift apart.
package classify

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Operation is the resolved category of a tool invocation.
type Operation string

// Operation categories. Unknown is reserved for records persisted before
// operation tracking existed (or rows that fail to parse).
const (
	OpCreate  Operation = "create"
	OpModify  Operation = "modify"
	OpDelete  Operation = "delete"
	OpRead    Operation = "read"
	OpOther   Operation = "other"
	OpUnknown Operation = "unknown"
)

// ParseOperation converts a stored string into an Operation.
// Anything unrecognized (including the empty string) is Unknown.
func ParseOperation(s string) Operation {
	switch Operation(s) {
	case OpCreate, OpModify, OpDelete, OpRead, OpOther:
		return Operation(s)
	default:
		return OpUnknown
	}
}

// IsFileOperation reports whether op carries a file path in the event log.
func (o Operation) IsFileOperation() bool {
	return o == OpCreate || o == OpModify || o == OpDelete
}

// Classification is the provisional result of classifying one tool call.
type Classification struct {
	Tool string
	Op   Operation
	Path string

	// Ambiguous is true for write-style tools whose final create-vs-modify
	// category depends on whether the target file already exists.
	Ambiguous bool
}

// toolSpec describes how one known tool maps to an operation.
type toolSpec struct {
	op        Operation
	pathField string
	ambiguous bool
}

// toolTable is the single source of truth for name-based classification,
// shared by Classify and Heuristic.
var toolTable = map[string]toolSpec{
	"write":  {op: OpModify, pathField: "file_path", ambiguous: true},
	"edit":   {op: OpModify, pathField: "file_path"},
	"delete": {op: OpDelete, pathField: "file_path"},
	"read":   {op: OpRead, pathField: "file_path"},
	"bash":   {op: OpOther},
	"glob":   {op: OpOther},
	"grep":   {op: OpOther},
}

// Classify returns the provisional operation for a tool call and, for
// file-affecting tools, the target path extracted from the raw JSON input.
// It is pure and never fails: a file tool with a missing or malformed path
// classifies as Unknown with no path, and the call proceeds regardless.
func Classify(toolName string, input []byte) Classification {
	spec, ok := toolTable[toolName]
	if !ok {
		return Classification{Tool: toolName, Op: OpOther}
	}

	if spec.pathField == "" {
		return Classification{Tool: toolName, Op: spec.op}
	}

	path := gjson.GetBytes(input, spec.pathField).String()
	if path == "" {
		// Path extraction failed; never block the call over it.
		return Classification{Tool: toolName, Op: OpUnknown}
	}

	return Classification{
		Tool:      toolName,
		Op:        spec.op,
		Path:      path,
		Ambiguous: spec.ambiguous,
	}
}

// Heuristic assigns a best-effort operation from the tool name alone.
// Used for legacy records where no argument payload or session state is
// available; an ambiguous write degrades to Create, matching how such
// sessions were historically counted.
func Heuristic(toolName string) Operation {
	if spec, ok := toolTable[toolName]; ok {
		if spec.ambiguous {
			return OpCreate
		}
		return spec.op
	}

	name := strings.ToLower(toolName)
	switch {
	case strings.Contains(name, "create") || strings.Contains(name, "write"):
		return OpCreate
	case strings.Contains(name, "edit") || strings.Contains(name, "modify") ||
		strings.Contains(name, "replace") || strings.Contains(name, "patch"):
		return OpModify
	case strings.Contains(name, "read") || strings.Contains(name, "view") ||
		strings.Contains(name, "cat") || strings.Contains(name, "show"):
		return OpRead
	case strings.Contains(name, "delete") || strings.Contains(name, "remove") ||
		strings.Contains(name, "rm"):
		return OpDelete
	default:
		return OpOther
	}
}
