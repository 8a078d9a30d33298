package metrics

import (
	"database/sql"
	"os"

	"codeberg.org/mutker/daikinctl/internal/errors"
)

type reader struct {
	db *sql.DB
}

// OpenReader opens an existing database read-only. Unlike NewRepository it
// never creates files or migrates the schema: a missing database or another
// schema version is an error.
func OpenReader(dbPath string) (Reader, error) {
	errFactory := errors.New()

	if dbPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, errFactory.Wrap(ErrDatabaseNotFound, err).WithMessage("no metrics database at " + dbPath)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version != SchemaVersion {
		db.Close()
		return nil, errFactory.WithData(ErrSchemaMismatch, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}

	return &reader{db: db}, nil
}

func (r *reader) Recent(device string, limit int) ([]Snapshot, error) {
	return queryRecent(r.db, device, limit)
}

func (r *reader) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}
