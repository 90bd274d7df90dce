package domain

// Group is an organizational sub-unit ("GF") a visitor is attached to.
// Groups are read-only from this service's point of view.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}
