package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/studyplan/server/planner"
)

const input = `{
  "name": "Boards",
  "deadline": "2025-06-20",
  "subjects": [
    {"discipline_name": "Medicine", "name": "Cardiology", "difficulty": "high", "importance": "high"}
  ],
  "availability": [
    {"id": 0, "selected": false, "hours_available": 0},
    {"id": 1, "selected": true, "hours_available": 1},
    {"id": 2, "selected": true, "hours_available": 1},
    {"id": 3, "selected": true, "hours_available": 1},
    {"id": 4, "selected": true, "hours_available": 1},
    {"id": 5, "selected": true, "hours_available": 1},
    {"id": 6, "selected": false, "hours_available": 0}
  ]
}`

func TestRunGenerate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(strings.NewReader(input), &out, generateOptions{today: "2025-06-02", format: "json"})
	require.NoError(t, err)

	result := &planner.Result{}
	require.NoError(t, json.Unmarshal(out.Bytes(), result))
	// Study on Monday, reviews at +1, +3, +7 and +14; +30 is past the deadline.
	require.Len(t, result.Schedule, 5)
	assert.Equal(t, "2025-06-02", result.Schedule[0].Date.String())
	assert.Equal(t, "2025-06-16", result.Schedule[4].Date.String())
	assert.Empty(t, result.Notifications)
}

func TestRunGenerate_Markdown(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(strings.NewReader(input), &out, generateOptions{today: "2025-06-02", format: "markdown"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "# Boards\n"))
	assert.Contains(t, out.String(), "- [ ] Study: Medicine / Cardiology (60 min)")
}

func TestRunGenerate_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runGenerate(strings.NewReader(input), &out, generateOptions{today: "2025-06-02", format: "yaml"}))
	assert.Error(t, runGenerate(strings.NewReader("{"), &out, generateOptions{format: "json"}))
	assert.Error(t, runGenerate(strings.NewReader(input), &out, generateOptions{today: "06/02/2025", format: "json"}))
	assert.Error(t, runGenerate(strings.NewReader(input), &out, generateOptions{today: "2025-06-25", format: "json"}))
}
