package domain

import "github.com/google/uuid"

// GroupScope selects which student groups a bulk membership operation works
// over. AllGroups means "every group allowed by the visibility rules";
// OnlyGroups restricts to an explicit set, and an explicit empty set is a
// deliberate no-op, distinct from AllGroups.
type GroupScope struct {
	all    bool
	groups []uuid.UUID
}

func AllGroups() GroupScope {
	return GroupScope{all: true}
}

func OnlyGroups(groups ...uuid.UUID) GroupScope {
	return GroupScope{groups: groups}
}

func (s GroupScope) All() bool { return s.all }

// Empty reports an explicit empty selection, i.e. OnlyGroups with no groups.
func (s GroupScope) Empty() bool { return !s.all && len(s.groups) == 0 }

func (s GroupScope) Contains(id uuid.UUID) bool {
	if s.all {
		return true
	}
	for _, g := range s.groups {
		if g == id {
			return true
		}
	}
	return false
}
