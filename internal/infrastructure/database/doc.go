// Package database provides SQLite connectivity for the Gemns integration core.
//
// The database holds a single concern: the device registry snapshot. The
// in-memory registry is authoritative at runtime; the snapshot is loaded
// once at startup and written once at shutdown, so a restart resumes with
// the last known fleet instead of an empty one.
//
// # Configuration
//
//	database:
//	  path: "./data/gemns.db"
//	  wal_mode: true
//	  busy_timeout: 5
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//	if err := db.Bootstrap(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
