package domain

// QuotaPolicy holds the entitlement ceilings and the priority/deny identity
// sets. It is built once from configuration at startup; MaxAllowed is
// evaluated per decision so a caller never caches a ceiling across a reset.
type QuotaPolicy struct {
	NormalMax   int
	PriorityMax int

	priority map[string]struct{}
	denied   map[string]struct{}
}

// NewQuotaPolicy builds a QuotaPolicy from the configured ceilings and sets.
func NewQuotaPolicy(normalMax, priorityMax int, priorityIDs, bannedIDs []string) QuotaPolicy {
	p := QuotaPolicy{
		NormalMax:   normalMax,
		PriorityMax: priorityMax,
		priority:    make(map[string]struct{}, len(priorityIDs)),
		denied:      make(map[string]struct{}, len(bannedIDs)),
	}
	for _, id := range priorityIDs {
		p.priority[id] = struct{}{}
	}
	for _, id := range bannedIDs {
		p.denied[id] = struct{}{}
	}
	return p
}

// MaxAllowed returns the daily ceiling for the given identity.
func (p QuotaPolicy) MaxAllowed(identity string) int {
	if _, ok := p.priority[identity]; ok {
		return p.PriorityMax
	}
	return p.NormalMax
}

// Banned reports whether the identity is on the deny list.
func (p QuotaPolicy) Banned(identity string) bool {
	_, ok := p.denied[identity]
	return ok
}
