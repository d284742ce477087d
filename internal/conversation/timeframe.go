package conversation

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// Timeframe buckets user messages for the history view.
type Timeframe string

const (
	TimeframeToday     Timeframe = "today"
	TimeframeYesterday Timeframe = "yesterday"
	// TimeframeWeek covers the last 7 days excluding today and yesterday.
	TimeframeWeek Timeframe = "week"
)

// ParseTimeframe validates a user-supplied timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeToday, TimeframeYesterday, TimeframeWeek:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("unknown timeframe %q (want today, yesterday or week)", s)
}

// sameCalendarDay compares two instants by calendar day in local time.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func (tf Timeframe) contains(ts, now time.Time) bool {
	switch tf {
	case TimeframeToday:
		return sameCalendarDay(ts, now)
	case TimeframeYesterday:
		return sameCalendarDay(ts, now.AddDate(0, 0, -1))
	case TimeframeWeek:
		weekAgo := now.AddDate(0, 0, -7)
		return ts.After(weekAgo) &&
			!sameCalendarDay(ts, now) &&
			!sameCalendarDay(ts, now.AddDate(0, 0, -1))
	}
	return false
}

// messagesByTimeframe picks the conversation starters for a timeframe:
// user messages only, deduplicated to the first user message of each
// calendar day, then filtered to the requested bucket.
func messagesByTimeframe(msgs []models.Message, tf Timeframe, now time.Time) []models.Message {
	var starters []models.Message
	for _, msg := range msgs {
		if msg.Role != models.RoleUser {
			continue
		}
		seen := false
		for _, st := range starters {
			if sameCalendarDay(st.Timestamp, msg.Timestamp) {
				seen = true
				break
			}
		}
		if !seen {
			starters = append(starters, msg)
		}
	}

	var out []models.Message
	for _, msg := range starters {
		if tf.contains(msg.Timestamp, now) {
			out = append(out, msg)
		}
	}
	return out
}
