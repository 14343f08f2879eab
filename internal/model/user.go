package model

// User is an authentication principal. Staff users may write the catalogue
// and see every order.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	IsStaff      bool   `db:"is_staff"`
}
