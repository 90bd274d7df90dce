// Package account implements staff/admin account management.
//
// Accounts are the logins that register visitors. Emails are stored
// normalized (trimmed, lowercase) and passwords only as bcrypt hashes.
// The repository contract lives here; the Postgres implementation is in
// repository/postgres/.
package account
