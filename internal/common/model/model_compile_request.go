package model

import "time"

// CompileRequest asks for one clause to be compiled against an entity type.
type CompileRequest struct {
	EntityType string           `json:"entityType"`
	Clause     string           `json:"clause"`
	Params     []interface{}    `json:"params,omitempty"`
	Scoring    *bool            `json:"scoring,omitempty"`
	Lifecycle  *LifecycleWindow `json:"lifecycle,omitempty"`
	Highlight  *HighlightConfig `json:"highlight,omitempty"`
}

// LifecycleWindow bounds the lifecycle field of the searched documents. Missing bounds are open.
type LifecycleWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// BatchCompileRequest groups several compile requests.
type BatchCompileRequest struct {
	Requests []CompileRequest `json:"requests"`
}

// AssertCompileRequestRequired checks if the required fields are not zero-ed
func AssertCompileRequestRequired(obj CompileRequest) error {
	if IsZeroValue(obj.EntityType) {
		return &RequiredError{Field: "entityType"}
	}
	return nil
}

// AssertCompileRequestConstraints checks if the values respects the defined constraints
func AssertCompileRequestConstraints(obj CompileRequest) error {
	if obj.Lifecycle != nil && obj.Lifecycle.Start != nil && obj.Lifecycle.End != nil &&
		obj.Lifecycle.End.Before(*obj.Lifecycle.Start) {
		return &ParsingError{Param: "lifecycle", Err: errLifecycleOrder}
	}
	return nil
}

// AssertBatchCompileRequestRequired checks every request of a batch.
func AssertBatchCompileRequestRequired(obj BatchCompileRequest, maxSize int) error {
	if len(obj.Requests) == 0 {
		return &RequiredError{Field: "requests"}
	}
	if maxSize > 0 && len(obj.Requests) > maxSize {
		return &ParsingError{Param: "requests", Err: errBatchTooLarge(maxSize)}
	}
	for _, r := range obj.Requests {
		if err := AssertCompileRequestRequired(r); err != nil {
			return err
		}
		if err := AssertCompileRequestConstraints(r); err != nil {
			return err
		}
	}
	return nil
}
