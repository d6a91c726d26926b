package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// scriptSuffixes mark interpreter arguments that name a script on disk.
var scriptSuffixes = []string{".py", ".sh", ".pl", ".rb", ".js"}

// ResolveFFprobePath returns the absolute path of the ffprobe binary when it
// can be found, falling back to the configured name.
func ResolveFFprobePath(binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if resolved, err := exec.LookPath(binary); err == nil {
		return resolved
	}
	return binary
}

// CheckInferenceCommand reports whether the inference command can start.
//
// The command is usually an interpreter such as python3 with the generation
// script as its first argument, so a first argument that looks like a script
// must also exist on disk.
func CheckInferenceCommand(command string, args []string) Status {
	result := Check(Requirement{
		Name:        "Inference",
		Command:     command,
		Description: "Runs the speech model for each batch",
	})
	if !result.Available {
		return result
	}
	resolved, _ := exec.LookPath(result.Command)
	result.Command = resolved

	script, ok := scriptArgument(args)
	if !ok {
		if info, err := os.Stat(resolved); err == nil && !isExecutable(info) {
			result.Available = false
			result.Detail = fmt.Sprintf("%s is not executable", resolved)
		}
		return result
	}
	switch info, err := os.Stat(script); {
	case err != nil:
		result.Available = false
		result.Detail = fmt.Sprintf("script %q not found", script)
	case info.IsDir():
		result.Available = false
		result.Detail = fmt.Sprintf("script %q is a directory", script)
	default:
		result.Command = resolved + " " + script
	}
	return result
}

func scriptArgument(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	first := strings.TrimSpace(args[0])
	if first == "" || strings.HasPrefix(first, "-") {
		return "", false
	}
	for _, suffix := range scriptSuffixes {
		if strings.HasSuffix(strings.ToLower(first), suffix) {
			return first, true
		}
	}
	if strings.ContainsRune(first, filepath.Separator) {
		return first, true
	}
	return "", false
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
