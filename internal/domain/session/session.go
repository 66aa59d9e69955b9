// Package session holds the per-merchandiser search context: recent queries and the last query.
package session

import "strings"

// MaxRecentQueries bounds the recent query log.
const MaxRecentQueries = 10

// RecentQueryLog is a most-recent-first list of distinct queries, at most MaxRecentQueries long.
type RecentQueryLog []string

// RecordQuery returns a new log with query moved to the front.
// Blank queries leave the log unchanged. The input log is never modified.
func RecordQuery(log RecentQueryLog, query string) RecentQueryLog {
	q := strings.TrimSpace(query)
	if q == "" {
		return log
	}
	out := make(RecentQueryLog, 0, min(len(log)+1, MaxRecentQueries))
	out = append(out, q)
	for _, prev := range log {
		if len(out) == MaxRecentQueries {
			break
		}
		if prev == q {
			continue
		}
		out = append(out, prev)
	}
	return out
}

// Head returns up to n most recent queries.
func (l RecentQueryLog) Head(n int) []string {
	if n <= 0 {
		return []string{}
	}
	if n > len(l) {
		n = len(l)
	}
	out := make([]string, n)
	copy(out, l[:n])
	return out
}

// Context is the search state of one session. It is a value; updates return a copy.
type Context struct {
	id        string
	recent    RecentQueryLog
	lastQuery string
}

// New creates an empty session context.
func New(id string) Context {
	return Context{id: id}
}

// Restore rebuilds a persisted session context. recent is re-bounded and deduplicated.
func Restore(id string, recent []string, lastQuery string) Context {
	var log RecentQueryLog
	for i := len(recent) - 1; i >= 0; i-- {
		log = RecordQuery(log, recent[i])
	}
	return Context{id: id, recent: log, lastQuery: lastQuery}
}

// ID returns the session identifier.
func (c Context) ID() string { return c.id }

// Recent returns a copy of the recent query log.
func (c Context) Recent() RecentQueryLog {
	out := make(RecentQueryLog, len(c.recent))
	copy(out, c.recent)
	return out
}

// LastQuery returns the last executed query.
func (c Context) LastQuery() string { return c.lastQuery }

// WithQuery records a search: the trimmed query becomes the last query and joins the log.
// Blank queries return the context unchanged.
func (c Context) WithQuery(query string) Context {
	q := strings.TrimSpace(query)
	if q == "" {
		return c
	}
	return Context{id: c.id, recent: RecordQuery(c.recent, q), lastQuery: q}
}
