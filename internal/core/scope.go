package core

import "strconv"

// Scope selects the records a ledger query runs over: every record, or the
// records of a single group.
type Scope struct {
	group *GroupID
}

func AllScope() Scope { return Scope{} }

func GroupScope(id GroupID) Scope { return Scope{group: &id} }

// Group returns the group id and true for a group scope.
func (s Scope) Group() (GroupID, bool) {
	if s.group == nil {
		return 0, false
	}
	return *s.group, true
}

func (s Scope) IsAll() bool { return s.group == nil }

// Key is a stable string form, used for cache keys and log fields.
func (s Scope) Key() string {
	if s.group == nil {
		return "all"
	}
	return "group:" + strconv.FormatInt(int64(*s.group), 10)
}

func (s Scope) String() string { return s.Key() }
