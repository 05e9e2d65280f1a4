package chat

// Policy decides who may run organizer commands.
type Policy interface {
	CanManage(userID uint64) bool
}

// AllowAll lets every user manage the schedule.
type AllowAll struct{}

// CanManage implements Policy.
func (AllowAll) CanManage(uint64) bool { return true }

// Allowlist lets only the listed users manage the schedule.
type Allowlist map[uint64]struct{}

// NewAllowlist builds an Allowlist from ids.
func NewAllowlist(ids ...uint64) Allowlist {
	a := make(Allowlist, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// CanManage implements Policy.
func (a Allowlist) CanManage(userID uint64) bool {
	_, ok := a[userID]
	return ok
}
