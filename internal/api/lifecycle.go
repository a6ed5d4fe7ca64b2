package api

// Lifecycle maps a status to the statuses it may move to.
type Lifecycle map[string][]string

// CanTransition reports whether from -> to is allowed. Staying in the same
// status is not a transition and returns false.
func (l Lifecycle) CanTransition(from, to string) bool {
	for _, next := range l[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status.
func (l Lifecycle) IsTerminal(status string) bool {
	return len(l[status]) == 0
}

// Known reports whether status appears in the lifecycle at all.
func (l Lifecycle) Known(status string) bool {
	if _, ok := l[status]; ok {
		return true
	}
	for _, next := range l {
		for _, s := range next {
			if s == status {
				return true
			}
		}
	}
	return false
}
