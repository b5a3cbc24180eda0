// Package db provides the embedded schema of the terminal's local database.
package db

import _ "embed"

// Schema contains the DDL statements for all local tables.
//
//go:embed migrations/001_session.sql
var Schema string
