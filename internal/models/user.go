package models

// User is a read-only directory entry. Accounts are owned by the
// auth subsystem; this service only resolves display names.
type User struct {
	ID       int    `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
