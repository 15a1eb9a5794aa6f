package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		in   string
		want Intensity
		ok   bool
	}{
		{"Mild", IntensityMild, true},
		{"\nModerate\n", IntensityModerate, true},
		{"very strong", IntensityVeryStrong, true},
		{"extreme", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseIntensity(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestStepNameAt(t *testing.T) {
	name, ok := StepNameAt(1)
	assert.True(t, ok)
	assert.Equal(t, StepWelcome, name)

	name, ok = StepNameAt(9)
	assert.True(t, ok)
	assert.Equal(t, StepFinalResponse, name)

	_, ok = StepNameAt(10)
	assert.False(t, ok, "step 10 should be out of range")
	assert.False(t, StepSummary.AcceptsAgentSupport())
	assert.True(t, StepGoals.AcceptsAgentSupport())
}

func TestSessionAgentResponsesKeepOrder(t *testing.T) {
	s := NewSession("abc", time.Unix(0, 0))
	s.SetAgentResponse("situation", "first")
	s.SetAgentResponse("thoughts", "second")
	s.SetAgentResponse("situation", "updated")

	require.Len(t, s.StepResponses, 2)
	assert.Equal(t, StepResponse{Step: "situation", Response: "updated"}, s.StepResponses[0])
	got, ok := s.AgentResponse("thoughts")
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("abc", time.Unix(0, 0))
	s.CustomThoughts = []string{"a"}
	s.Form.Thoughts = []string{"a"}
	s.AIResponse = &ResponseBundle{Validation: "v"}

	c := s.Clone()
	c.CustomThoughts[0] = "b"
	c.Form.Thoughts[0] = "b"
	c.AIResponse.Validation = "changed"

	assert.Equal(t, "a", s.CustomThoughts[0])
	assert.Equal(t, "a", s.Form.Thoughts[0])
	assert.Equal(t, "v", s.AIResponse.Validation)
}

func TestSessionJSONOmitsCredential(t *testing.T) {
	s := NewSession("abc", time.Unix(0, 0))
	s.Credential = "AIzaSy-USER-SECRET"
	s.CredentialValidated = true

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "AIzaSy-USER-SECRET")
	assert.NotContains(t, string(data), "credential")
}

func TestAPIResponseJSON(t *testing.T) {
	data, err := json.Marshal(Error("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"boom"}`, string(data))
}
