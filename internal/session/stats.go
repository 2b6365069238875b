package session

import (
	"strconv"
	"time"
)

// Stats summarises the stored history.
type Stats struct {
	Total    int
	Today    int
	Messages int
}

// ComputeStats counts sessions, sessions created on now's calendar day,
// and messages across all sessions.
func ComputeStats(list []Session, now time.Time) Stats {
	var st Stats
	y, m, d := now.Date()
	for _, s := range list {
		st.Total++
		st.Messages += len(s.Messages)
		sy, sm, sd := s.CreatedAt.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			st.Today++
		}
	}
	return st
}

// FormatCount renders n compactly: 1234 becomes "1.2K".
func FormatCount(n int) string {
	if n > 999 {
		return strconv.FormatFloat(float64(n)/1000, 'f', 1, 64) + "K"
	}
	return strconv.Itoa(n)
}
