package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external tool a run needs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional tools are reported but never fail preflight.
	Optional bool
}

// Status is a Requirement after lookup. Command holds the configured name
// when the tool is missing and a fuller description once it resolves.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Check looks req up on PATH.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	switch _, err := exec.LookPath(req.Command); {
	case req.Command == "":
		status.Detail = "command not configured"
	case err != nil:
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
	default:
		status.Available = true
	}
	return status
}

// CheckBinaries runs Check over each requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}
