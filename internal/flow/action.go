package flow

import (
	"fmt"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// ActionKind names a user interaction with the wizard.
type ActionKind string

const (
	ActionAdvance ActionKind = "advance"
	ActionRetreat ActionKind = "retreat"
	ActionReset   ActionKind = "reset"
	ActionSet     ActionKind = "set"    // set a scalar field
	ActionToggle  ActionKind = "toggle" // toggle one predefined option
	ActionSelect  ActionKind = "select" // replace a multi-select selection
	ActionAdd     ActionKind = "add"    // add a custom entry
	ActionDelete  ActionKind = "delete" // delete a custom entry by index
)

// Field names accepted by ActionSet.
const (
	FieldCategory         = "category"
	FieldCustomCategory   = "custom_category"
	FieldSituation        = "situation"
	FieldPrimaryEmotion   = "primary_emotion"
	FieldCustomEmotion    = "custom_emotion"
	FieldEmotionIntensity = "emotion_intensity"
	FieldGoal             = "goal"
	FieldExtraNotes       = "extra_notes"
)

// ListName identifies one accumulator.
type ListName string

const (
	ListThoughts  ListName = "thoughts"
	ListSupport   ListName = "support"
	ListStrengths ListName = "strengths"
)

// Action is one interaction submitted by the front-end.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Field  string     `json:"field,omitempty"`
	Value  string     `json:"value,omitempty"`
	Values []string   `json:"values,omitempty"`
	List   ListName   `json:"list,omitempty"`
	Index  *int       `json:"index,omitempty"`
}

// IsNavigation reports whether the action moves the step cursor.
func (a Action) IsNavigation() bool {
	switch a.Kind {
	case ActionAdvance, ActionRetreat, ActionReset:
		return true
	default:
		return false
	}
}

// AtIndex returns a pointer suitable for Action.Index.
func AtIndex(i int) *int {
	return &i
}

// deleteIndex returns the index a delete action targets. A missing index is rejected
// rather than defaulting to the first entry.
func (a Action) deleteIndex() (int, error) {
	if a.Index == nil {
		return 0, fmt.Errorf("%w: index is required", models.ErrIndexOutOfRange)
	}
	return *a.Index, nil
}
