package domain

// Lab is a physical or organizational location whose inventory is audited.
// Name is unique across the store.
type Lab struct {
	ID       int64
	Name     string
	Location *string
}
