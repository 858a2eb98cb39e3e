//go:build !sqlite_cgo

package sqlite

// Default build: pure Go SQLite, no C toolchain required. Suits the small
// single-device deployments this application targets.
//
//	go build ./...

import (
	_ "modernc.org/sqlite"
)

// DriverName selects the registered database/sql driver.
const DriverName = "sqlite"
