//go:build sqlite_cgo

package sqlite

// CGO build: the C SQLite implementation, noticeably faster on low-end
// hardware.
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName selects the registered database/sql driver.
const DriverName = "sqlite3"
