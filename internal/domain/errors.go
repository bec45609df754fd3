package domain

import (
	"fmt"
	"strings"
)

// ValidationError marks a malformed ShapeDefinition or a step whose declared
// dependencies are absent. It is a defect in the definition itself, distinct
// from any remote failure, and is raised before a request is built.
type ValidationError struct {
	Step   string
	Reason string
}

func (e *ValidationError) Error() string {
	if strings.TrimSpace(e.Step) == "" {
		return "invalid shape definition: " + e.Reason
	}
	return fmt.Sprintf("invalid shape definition: step %q: %s", e.Step, e.Reason)
}

// ResolutionError marks a plane, workspace, element, or face that could not
// be determined after all fallback tiers were exhausted.
type ResolutionError struct {
	What string
}

func (e *ResolutionError) Error() string {
	return "resolution failed: " + e.What
}

// RemoteError is a non-success status or unparseable body reported by the
// CAD service.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("cad api error (status=%d)", e.StatusCode)
	}
	return fmt.Sprintf("cad api error (status=%d): %s", e.StatusCode, body)
}

// NetworkError marks an unreachable transport.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "cad service unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthenticationError marks a rejected or missing credential.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "cad authentication failed: " + e.Reason
}
