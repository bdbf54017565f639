package aggregator

import (
	"newsdesk/internal/store"
)

// genericDescriptions are boilerplate audit lines that carry no information
// once a more specific record exists for the same event.
var genericDescriptions = map[string]bool{
	"Updated with new information from feeds": true,
	"Updated with new information":            true,
	"Event created from news aggregation":     true,
}

// trimUpdateRecords deletes redundant generic audit records. For each event
// with more than one record, the first (creation) record is always kept and
// any generic record after it is removed. An event never loses its last
// record; if trimming leaves only a generic creation record, it is rewritten
// to name the event instead.
func trimUpdateRecords(tx *store.Tx) (int, error) {
	ids, err := tx.EventIDsWithMultipleRecords()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, eventID := range ids {
		records, err := tx.ListUpdateRecords(eventID)
		if err != nil {
			return removed, err
		}
		if len(records) <= 1 {
			continue
		}

		first := records[0]
		remaining := len(records)
		for _, rec := range records[1:] {
			if !genericDescriptions[rec.Description] {
				continue
			}
			if err := tx.DeleteUpdateRecord(rec.ID); err != nil {
				return removed, err
			}
			removed++
			remaining--
		}

		if remaining == 1 && genericDescriptions[first.Description] {
			title, err := tx.EventTitle(eventID)
			if err != nil {
				return removed, err
			}
			if err := tx.RewriteUpdateRecord(first.ID, creationRecord(title)); err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}
