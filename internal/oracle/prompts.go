package oracle

import (
	"fmt"
	"strings"

	"newsdesk/internal/feed"
)

// ActiveEvent is the slice of event state the oracle sees when matching new
// articles against what is already being tracked.
type ActiveEvent struct {
	EventID     string
	Title       string
	Description string
	Tags        []string
	Score       float64
}

// ClassificationPrompt builds the prompt asking the oracle to map a batch of
// articles onto the existing active events.
func ClassificationPrompt(existing []ActiveEvent, articles []feed.RawArticle) string {
	var events strings.Builder
	if len(existing) > 0 {
		events.WriteString("Existing Active Events:\n")
		for i, ev := range existing {
			fmt.Fprintf(&events, "%d. Event ID: %s\n", i+1, ev.EventID)
			fmt.Fprintf(&events, "   Title: %s\n", ev.Title)
			fmt.Fprintf(&events, "   Description: %s\n", ev.Description)
			fmt.Fprintf(&events, "   Tags: %s\n", strings.Join(ev.Tags, ", "))
			fmt.Fprintf(&events, "   Current Score: %.0f\n\n", ev.Score)
		}
	} else {
		events.WriteString("There are no existing active events.\n")
	}

	var items strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&items, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(&items, "   Description: %s\n", a.Description)
		fmt.Fprintf(&items, "   Source: %s\n\n", a.SourceName)
	}

	return fmt.Sprintf(`You are a news event compiler. Analyze the following news articles against the existing events.

%s
New Articles:
%s
Your task:
1. For each new article, determine if it relates to an existing event or represents a new event
2. If it relates to an existing event, compare the information and determine if there are meaningful new developments
3. If it is a new event, generate a new event_id (derive a unique identifier from the title and description)
4. Compile a comprehensive summary for each event
5. Assign significance scores (0-100) based on:
   - Global impact
   - Number of people affected
   - Economic significance
   - Political importance
   - Scientific/technological breakthrough
   - Urgency/timeliness

CRITICAL: For updates to existing events, ONLY mark as update if there are substantial new developments such as:
- New facts or numbers (e.g., "Death toll rises to 50")
- New statements or accusations (e.g., "Company admits fault")
- Breaking developments (e.g., "New evidence emerges", "CEO resigns")
- Major changes in the story (e.g., "Investigation reveals", "Court rules against")

DO NOT update for:
- Minor rephrasing with same meaning
- Small score adjustments without new info
- Duplicate information from different sources
- Minor editorial changes

Return ONLY a JSON array with objects containing:
- event_id: existing event_id if updating, or new unique identifier if new event
- title: compelling headline
- description: comprehensive summary
- significance_score: 0-100
- tags: relevant categories
- sources: list of source names
- urls: list of article URLs
- is_update: true if updating an existing event with meaningful new info, false if new event
- update_description: brief description of what changed (only for meaningful updates, max 100 chars)
- changes_significant: true/false - whether the changes warrant a new update record

If no article is worth tracking, return: []`, events.String(), items.String())
}
