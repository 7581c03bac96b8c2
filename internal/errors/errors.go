// Package errors provides structured error types for fieldlapse operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindPath represents path-related errors.
	KindPath
	// KindCommand represents external command execution errors.
	KindCommand
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindNoFilesFound represents no suitable video files found.
	KindNoFilesFound
	// KindOperationFailed represents general operation failures.
	KindOperationFailed
	// KindCancelled represents user-cancelled operations.
	KindCancelled
	// KindSourceOpen represents a failure to open or index a source video.
	KindSourceOpen
	// KindInsufficientFrames represents a video too short to analyze.
	KindInsufficientFrames
	// KindEncoderFailure represents a segment encoder subprocess failure.
	KindEncoderFailure
	// KindConcatFailure represents a failure concatenating encoded segments.
	KindConcatFailure
	// KindInvalidSettings represents an invalid encoder settings value.
	KindInvalidSettings
	// KindInvalidTransition represents an illegal job status transition.
	KindInvalidTransition
	// KindUnknownProfile represents a reference to an unregistered profile name.
	KindUnknownProfile
	// KindUnknownJob represents a reference to a job ID the orchestrator has no record of.
	KindUnknownJob
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindPath:
		return "Path error"
	case KindCommand:
		return "Command error"
	case KindConfig:
		return "Configuration error"
	case KindNoFilesFound:
		return "No files found"
	case KindOperationFailed:
		return "Operation failed"
	case KindCancelled:
		return "Operation cancelled"
	case KindSourceOpen:
		return "Source open error"
	case KindInsufficientFrames:
		return "Insufficient frames"
	case KindEncoderFailure:
		return "Encoder failure"
	case KindConcatFailure:
		return "Concat failure"
	case KindInvalidSettings:
		return "Invalid settings"
	case KindInvalidTransition:
		return "Invalid status transition"
	case KindUnknownProfile:
		return "Unknown profile"
	case KindUnknownJob:
		return "Unknown job"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for fieldlapse operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewPathError creates a new path-related error.
func NewPathError(message string) *CoreError {
	return &CoreError{Kind: KindPath, Message: message}
}

// NewCommandError creates a new command execution error.
func NewCommandError(cmd string, kind CommandErrorKind, underlying error) *CoreError {
	cmdErr := &CommandError{
		Command:    cmd,
		Kind:       kind,
		Underlying: underlying,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandStart, err)
}

// NewCommandWaitError creates an error for when waiting for a command fails.
func NewCommandWaitError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandWait, err)
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message}
}

// NewNoFilesFoundError creates an error for when no video files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no suitable video files found in %s", dir)}
}

// NewOperationFailedError creates a new general operation failure error.
func NewOperationFailedError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindOperationFailed, Message: message, Underlying: underlying}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// NewSourceOpenError creates an error for a source video that could not be opened or indexed.
func NewSourceOpenError(path string, underlying error) *CoreError {
	return &CoreError{Kind: KindSourceOpen, Message: fmt.Sprintf("could not open source %s", path), Underlying: underlying}
}

// NewInsufficientFramesError creates an error for a video too short to analyze.
func NewInsufficientFramesError(path string, frames uint64) *CoreError {
	return &CoreError{Kind: KindInsufficientFrames, Message: fmt.Sprintf("%s has only %d frames, too short to analyze", path, frames)}
}

// NewEncoderFailureError creates an error for a failed segment encode.
func NewEncoderFailureError(segment int, underlying error) *CoreError {
	return &CoreError{Kind: KindEncoderFailure, Message: fmt.Sprintf("segment %d encode failed", segment), Underlying: underlying}
}

// NewConcatFailureError creates an error for a failed demuxer concatenation.
func NewConcatFailureError(underlying error) *CoreError {
	return &CoreError{Kind: KindConcatFailure, Message: "failed to concatenate segments", Underlying: underlying}
}

// NewInvalidSettingsError creates an error for an invalid encoder settings value.
func NewInvalidSettingsError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindInvalidSettings, Message: message, Underlying: underlying}
}

// NewInvalidTransitionError creates an error for an illegal job status transition.
func NewInvalidTransitionError(from, to string) *CoreError {
	return &CoreError{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition job from %s to %s", from, to)}
}

// NewUnknownProfileError creates an error for a reference to an unregistered profile.
func NewUnknownProfileError(name string) *CoreError {
	return &CoreError{Kind: KindUnknownProfile, Message: fmt.Sprintf("unknown profile %q", name)}
}

// NewUnknownJobError creates an error for a reference to an untracked job ID.
func NewUnknownJobError(id string) *CoreError {
	return &CoreError{Kind: KindUnknownJob, Message: fmt.Sprintf("unknown job %q", id)}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsNoFilesFound checks if the error is a no-files-found error.
func IsNoFilesFound(err error) bool {
	return IsKind(err, KindNoFilesFound)
}

// WrapExecError wraps an exec.ExitError into a CoreError.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
