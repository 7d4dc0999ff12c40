package runlog

import (
	"fmt"
	"strings"
)

// SchemaVersion written on every record.
const SchemaVersion = "1.1"

const maxStepLen = 200

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
)

type ActionType string

const (
	ActionNavigation      ActionType = "navigation"
	ActionExtraction      ActionType = "extraction"
	ActionInteraction     ActionType = "interaction"
	ActionScreenshot      ActionType = "screenshot"
	ActionRecipeExecution ActionType = "recipe_execution"
	ActionDataProcessing  ActionType = "data_processing"
	ActionAnalysis        ActionType = "analysis"
	ActionUserInteraction ActionType = "user_interaction"
	ActionOther           ActionType = "other"
)

type ExecutionMethod string

const (
	MethodCommand  ExecutionMethod = "command"
	MethodRecipe   ExecutionMethod = "recipe"
	MethodFile     ExecutionMethod = "file"
	MethodManual   ExecutionMethod = "manual"
	MethodAnalysis ExecutionMethod = "analysis"
	MethodTool     ExecutionMethod = "tool"
)

type InsightType string

const (
	InsightKeyFactor  InsightType = "key_factor"
	InsightPitfall    InsightType = "pitfall"
	InsightLesson     InsightType = "lesson"
	InsightWorkaround InsightType = "workaround"
)

// Insight is a structured note attached to a log entry.
type Insight struct {
	InsightType InsightType `json:"insight_type"`
	Summary     string      `json:"summary"`
	Detail      string      `json:"detail,omitempty"`
}

// Entry is one JSONL record of a run's activity log.
type Entry struct {
	SchemaVersion   string          `json:"schema_version"`
	Timestamp       string          `json:"timestamp"`
	Step            string          `json:"step"`
	Status          Status          `json:"status"`
	ActionType      ActionType      `json:"action_type"`
	ExecutionMethod ExecutionMethod `json:"execution_method"`
	Data            map[string]any  `json:"data"`
	Insights        []Insight       `json:"insights,omitempty"`
}

func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case StatusSuccess, StatusError, StatusWarning:
		return Status(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("invalid status: %q", s)
	}
}

func ParseActionType(s string) (ActionType, error) {
	switch ActionType(strings.TrimSpace(s)) {
	case ActionNavigation, ActionExtraction, ActionInteraction, ActionScreenshot,
		ActionRecipeExecution, ActionDataProcessing, ActionAnalysis,
		ActionUserInteraction, ActionOther:
		return ActionType(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("invalid action type: %q", s)
	}
}

func ParseExecutionMethod(s string) (ExecutionMethod, error) {
	switch ExecutionMethod(strings.TrimSpace(s)) {
	case MethodCommand, MethodRecipe, MethodFile, MethodManual, MethodAnalysis, MethodTool:
		return ExecutionMethod(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("invalid execution method: %q", s)
	}
}

func ParseInsightType(s string) (InsightType, error) {
	switch InsightType(strings.TrimSpace(s)) {
	case InsightKeyFactor, InsightPitfall, InsightLesson, InsightWorkaround:
		return InsightType(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("invalid insight type: %q", s)
	}
}

// validate checks the writable fields before a record is appended.
func (e *Entry) validate() error {
	step := strings.TrimSpace(e.Step)
	if step == "" || len(step) > maxStepLen {
		return fmt.Errorf("step must be 1-%d characters", maxStepLen)
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if _, err := ParseActionType(string(e.ActionType)); err != nil {
		return err
	}
	if _, err := ParseExecutionMethod(string(e.ExecutionMethod)); err != nil {
		return err
	}
	for _, ins := range e.Insights {
		if _, err := ParseInsightType(string(ins.InsightType)); err != nil {
			return err
		}
		if strings.TrimSpace(ins.Summary) == "" {
			return fmt.Errorf("insight summary must be non-empty")
		}
	}
	return nil
}
