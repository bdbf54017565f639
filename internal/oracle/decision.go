package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxUpdateDescChars bounds the audit-record text an update decision may carry.
const maxUpdateDescChars = 200

// Decision is one classification verdict: either "this article batch updates
// event X" or "this is a new event". The oracle returns a JSON array of these.
type Decision struct {
	EventID            string   `json:"event_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	SignificanceScore  float64  `json:"significance_score"`
	Tags               []string `json:"tags"`
	Sources            []string `json:"sources"`
	URLs               []string `json:"urls"`
	IsUpdate           bool     `json:"is_update"`
	UpdateDescription  string   `json:"update_description"`
	ChangesSignificant *bool    `json:"changes_significant"`
}

// SignificantChanges reports whether the decision carries meaningful new
// information. A missing flag counts as significant, matching the lenient
// reading older oracle payloads relied on.
func (d Decision) SignificantChanges() bool {
	return d.ChangesSignificant == nil || *d.ChangesSignificant
}

// ParseDecisions extracts a JSON decision array from an oracle response.
// The response might contain markdown code fences or other wrapper text.
// A malformed envelope fails the whole batch; the caller treats that as an
// empty decision set.
func ParseDecisions(content string) ([]Decision, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	content = strings.TrimSpace(content)

	// Find the JSON array
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	jsonStr := content[start : end+1]

	var decisions []Decision
	if err := json.Unmarshal([]byte(jsonStr), &decisions); err != nil {
		return nil, fmt.Errorf("unmarshal decisions: %w", err)
	}

	return decisions, nil
}

// ValidateDecision checks one decision for obvious garbage. Returns a
// sanitized copy and an error if the decision should be dropped. Rejection is
// per decision; the rest of the batch is unaffected.
func ValidateDecision(d Decision) (Decision, error) {
	d.EventID = strings.TrimSpace(d.EventID)
	if d.EventID == "" {
		return d, fmt.Errorf("missing event_id")
	}

	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.UpdateDescription = strings.TrimSpace(d.UpdateDescription)

	if !d.IsUpdate && d.Title == "" {
		return d, fmt.Errorf("new event decision without title")
	}

	// Scores live on a 0-100 scale before the new-event bonus.
	if d.SignificanceScore < 0 {
		d.SignificanceScore = 0
	}
	if d.SignificanceScore > 100 {
		d.SignificanceScore = 100
	}

	if len(d.UpdateDescription) > maxUpdateDescChars {
		d.UpdateDescription = truncateClean(d.UpdateDescription, maxUpdateDescChars)
	}

	return d, nil
}

// truncateClean truncates a string to at most maxLen bytes, cutting at the
// last word boundary to avoid mid-word breaks. The cut always lands on a rune
// boundary so a multi-byte character is never split.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	truncated := s[:cut]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > maxLen/2 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
