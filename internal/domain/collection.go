package domain

// Collection is a user-named group of library entries.
// Names are unique per user, and a collection has at least one member when created.
type Collection struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}
