package jsonstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davidkych/cursus-backend/internal/models"
)

// Log timestamps and day buckets use Hong Kong time.
var hkt = mustLoadHKT()

func mustLoadHKT() *time.Location {
	loc, err := time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		return time.FixedZone("HKT", 8*60*60)
	}
	return loc
}

// NowHKT returns the current Hong Kong wall-clock time.
func NowHKT() time.Time {
	return time.Now().In(hkt)
}

// AppendLog adds one entry to today's log document for the given tags,
// creating the day bucket on first write. Returns the log document id and
// the entry count after the append.
//
// The fetch-append-upsert sequence is not atomic: two concurrent appends to
// the same day bucket can lose one entry (last writer wins). Callers are a
// single scheduler goroutine and low-traffic log routes, so the window is
// tolerated; making it safe would need the entries array in a dedicated
// collection with $push instead of a generic document replace.
func (s *Store) AppendLog(ctx context.Context, tag, tertiaryTag, base, message string) (string, int, error) {
	now := NowHKT()
	year, month, day := now.Year(), int(now.Month()), now.Day()

	key := Key{
		Tag:          "log",
		SecondaryTag: tag,
		TertiaryTag:  tertiaryTag,
		Year:         &year,
		Month:        &month,
		Day:          &day,
	}

	var entries []models.LogEntry
	existing, err := s.Fetch(ctx, key)
	switch err {
	case nil:
		entries = decodeLogEntries(existing)
	case ErrNotFound:
		entries = []models.LogEntry{}
	default:
		return "", 0, err
	}

	entries = append(entries, models.LogEntry{
		Timestamp:    now.Format("2006-01-02T15:04:05"),
		Base:         fmt.Sprintf("[%s]", base),
		Message:      message,
		SecondaryTag: tag,
		TertiaryTag:  tertiaryTag,
	})

	id, err := s.Upsert(ctx, key, entries)
	if err != nil {
		return "", 0, err
	}
	return id, len(entries), nil
}

// decodeLogEntries tolerates both freshly written []models.LogEntry values
// and the generic shapes the driver decodes persisted documents into.
func decodeLogEntries(data interface{}) []models.LogEntry {
	var items []interface{}
	switch v := data.(type) {
	case []models.LogEntry:
		return v
	case []interface{}:
		items = v
	case primitive.A:
		items = v
	default:
		return []models.LogEntry{}
	}

	entries := make([]models.LogEntry, 0, len(items))
	for _, raw := range items {
		m, ok := toStringMap(raw)
		if !ok {
			continue
		}
		entries = append(entries, models.LogEntry{
			Timestamp:    stringField(m, "timestamp"),
			Base:         stringField(m, "base"),
			Message:      stringField(m, "message"),
			SecondaryTag: stringField(m, "secondary_tag"),
			TertiaryTag:  stringField(m, "tertiary_tag"),
		})
	}
	return entries
}

func toStringMap(raw interface{}) (map[string]interface{}, bool) {
	switch m := raw.(type) {
	case map[string]interface{}:
		return m, true
	case primitive.M:
		return m, true
	case primitive.D:
		return m.Map(), true
	default:
		return nil, false
	}
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
