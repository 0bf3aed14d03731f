// Package insight turns a room's recent occupancy history into
// human-readable usage insights via an external text-generation API.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"campus-occupancy-backend/internal/model"
)

// historyWindow bounds how many samples feed one prompt so the rendered log
// cannot overflow it.
const historyWindow = 50

// ErrNoData is returned when a room has no stored history at all. It is a
// sentinel distinct from both a computed insight and a failure.
var ErrNoData = errors.New("no occupancy data")

// ProviderError wraps a failure reaching the external generation API.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("ai provider: %v", e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// ParseError wraps a provider response that did not yield a valid insight
// after code-fence cleanup.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("ai response parse: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Insight is the parsed model output. Produced fresh on every request,
// never cached.
type Insight struct {
	EfficiencyScore string `json:"efficiency_score"`
	PeakTime        string `json:"peak_time"`
	Recommendation  string `json:"recommendation"`
}

// TextGenerator is the single call the generator makes against an external
// model. Tests substitute a fake implementation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecordSource supplies the windowed history reads the generator needs.
type RecordSource interface {
	RecentRecords(ctx context.Context, roomID string, limit int) ([]model.OccupancyRecord, error)
}

// Generator builds prompts from stored history and parses model responses.
type Generator struct {
	records RecordSource
	model   TextGenerator
}

// NewGenerator creates a generator with an injected record source and model
// client.
func NewGenerator(records RecordSource, model TextGenerator) *Generator {
	return &Generator{records: records, model: model}
}

// Generate produces an insight for one room from its most recent history.
// Returns ErrNoData when the room has no samples, a *ProviderError when the
// external call fails, and a *ParseError when the response is not a valid
// three-field JSON object.
func (g *Generator) Generate(ctx context.Context, roomID string) (*Insight, error) {
	logs, err := g.records.RecentRecords(ctx, roomID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for room %s: %w", roomID, err)
	}
	if len(logs) == 0 {
		return nil, ErrNoData
	}

	prompt := BuildPrompt(roomID, logs)

	text, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}

	cleaned := StripFences(text)
	var ins Insight
	if err := json.Unmarshal([]byte(cleaned), &ins); err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}
	if ins.EfficiencyScore == "" || ins.PeakTime == "" || ins.Recommendation == "" {
		return nil, &ParseError{Raw: text, Err: errors.New("missing insight fields")}
	}
	return &ins, nil
}

// BuildPrompt renders the history into log lines, newest first, and embeds
// them in the fixed instruction template. The model receives most-recent-
// first log order, not chronological.
func BuildPrompt(roomID string, logs []model.OccupancyRecord) string {
	lines := make([]string, len(logs))
	for i, rec := range logs {
		lines[i] = fmt.Sprintf("- %s at %s: %d/%d people. Ghost: %t",
			rec.DayOfWeek, rec.Timestamp.Format("3:04:05 PM"), rec.Occupancy, rec.Capacity, rec.IsGhost)
	}
	summary := strings.Join(lines, "\n")

	return fmt.Sprintf(`Act as a University Facility Manager. Analyze the following room usage logs for Room %s.

Logs:
%s

Provide 3 short, actionable insights in this JSON format:
{
  "efficiency_score": "0-100%%",
  "peak_time": "e.g. Monday Mornings",
  "recommendation": "One specific suggestion to save energy or improve usage."
}`, roomID, summary)
}

// StripFences removes markdown code-fence markers the model sometimes wraps
// around its JSON output.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
