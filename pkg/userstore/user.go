package userstore

// User is an account known to the embedding service
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Active   bool   `json:"active"`
}

// Schema creates the users table read by SQLStore
const Schema = `CREATE TABLE IF NOT EXISTS users (
	id        INTEGER PRIMARY KEY,
	email     TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE
)`
