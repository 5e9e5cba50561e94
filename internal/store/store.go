package store

import "database/sql"

// Store holds all sub-stores used by the application.
type Store struct {
	DB        *sql.DB
	Customers CustomerStore
	Users     UserStore
	Sessions  SessionStore
	Segments  SegmentStore
	Exports   ExportStore
	Imports   ImportStore
	Requests  RequestLogStore
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	return &Store{
		DB:        db,
		Customers: NewSQLiteCustomerStore(db),
		Users:     NewSQLiteUserStore(db),
		Sessions:  NewSQLiteSessionStore(db),
		Segments:  NewSQLiteSegmentStore(db),
		Exports:   NewSQLiteExportStore(db),
		Imports:   NewSQLiteImportStore(db),
		Requests:  NewSQLiteRequestLogStore(db),
	}
}
