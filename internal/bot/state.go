package bot

import "fmt"

// StateKind enumerates the steps of one interaction cycle
type StateKind int

const (
	StateIdle StateKind = iota
	StateWaitingForStartPage
	StateClickingStart
	StateWaitingForLoading
	StateClickingSkip
	StateWaitingForResult
	StateCapturing
	StateClickingEnd
	StateCheckingLoop
	StateComplete
	StateError
	StateAborted
)

var stateNames = map[StateKind]string{
	StateIdle:                "Idle",
	StateWaitingForStartPage: "WaitingForStartPage",
	StateClickingStart:       "ClickingStart",
	StateWaitingForLoading:   "WaitingForLoading",
	StateClickingSkip:        "ClickingSkip",
	StateWaitingForResult:    "WaitingForResult",
	StateCapturing:           "Capturing",
	StateClickingEnd:         "ClickingEnd",
	StateCheckingLoop:        "CheckingLoop",
	StateComplete:            "Complete",
	StateError:               "Error",
	StateAborted:             "Aborted",
}

func (k StateKind) String() string {
	if name, ok := stateNames[k]; ok {
		return name
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// State is the controller's current position. Reason is set only for
// StateError.
type State struct {
	Kind   StateKind
	Reason string
}

// Failed builds an Error state carrying reason
func Failed(reason string) State {
	return State{Kind: StateError, Reason: reason}
}

// IsTerminal reports Complete, Error and Aborted
func (s State) IsTerminal() bool {
	switch s.Kind {
	case StateComplete, StateError, StateAborted:
		return true
	}
	return false
}

func (s State) String() string {
	if s.Kind == StateError {
		return fmt.Sprintf("Error(%s)", s.Reason)
	}
	return s.Kind.String()
}

// Description is the operator-facing text shown in status output
func (s State) Description() string {
	switch s.Kind {
	case StateIdle:
		return "Idle"
	case StateWaitingForStartPage:
		return "Waiting for start page"
	case StateClickingStart:
		return "Clicking start"
	case StateWaitingForLoading:
		return "Waiting for loading"
	case StateClickingSkip:
		return "Clicking skip"
	case StateWaitingForResult:
		return "Waiting for result"
	case StateCapturing:
		return "Capturing result"
	case StateClickingEnd:
		return "Clicking end"
	case StateCheckingLoop:
		return "Checking loop"
	case StateComplete:
		return "Complete"
	case StateAborted:
		return "Aborted"
	case StateError:
		return "Error: " + s.Reason
	}
	return s.String()
}

// StepResult tells the owner of the step loop whether to keep going
type StepResult int

const (
	StepContinue StepResult = iota // progress made, call Step again
	StepDone                       // stopped normally (Complete or Aborted)
	StepFailed                     // stopped in Error
)

func (r StepResult) String() string {
	switch r {
	case StepContinue:
		return "continue"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	}
	return "unknown"
}

func resultFor(s State) StepResult {
	switch s.Kind {
	case StateError:
		return StepFailed
	case StateComplete, StateAborted:
		return StepDone
	}
	return StepContinue
}
