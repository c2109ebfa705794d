package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func Open(dbUrl string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", foreignKeysDSN(dbUrl))
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}

// foreignKeysDSN appends the driver's foreign-key parameter to the DSN.
// A PRAGMA issued through db.Exec only reaches the one pooled connection
// that happens to serve it; the DSN parameter applies to every connection
// the pool opens, so ON DELETE CASCADE fires everywhere.
func foreignKeysDSN(dbUrl string) string {
	if strings.Contains(dbUrl, "_foreign_keys=") {
		return dbUrl
	}
	sep := "?"
	if strings.Contains(dbUrl, "?") {
		sep = "&"
	}
	return dbUrl + sep + "_foreign_keys=on"
}
