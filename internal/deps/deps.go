// Package deps checks that the external programs a run shells out to are
// installed.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolMissing reports a required program that cannot be found.
var ErrToolMissing = errors.New("required tool missing")

// Requirement defines an external dependency BurnAudio relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Require returns an error wrapping ErrToolMissing that names every
// unavailable non-optional dependency.
func Require(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if s.Available || s.Optional {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
}
