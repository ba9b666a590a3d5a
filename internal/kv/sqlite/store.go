package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/internal/kv"
	"github.com/hailinhs/alumnisite/internal/kv/sqlite/gen/model"
	"github.com/hailinhs/alumnisite/internal/kv/sqlite/gen/table"
	"github.com/hailinhs/alumnisite/internal/migrate"
)

type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ kv.Store = (*Store)(nil)

func New(ctx context.Context, l *logrus.Logger, fileName string) (*Store, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "kv-sqlite",
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = migrate.UpStoreDB(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	log.WithField("file", fileName).Info("local store connected")
	return &Store{
		db:  db,
		log: log,
	}, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var dest model.Collections
	err := table.Collections.
		SELECT(table.Collections.AllColumns).
		FROM(table.Collections).
		WHERE(table.Collections.Key.EQ(sqlite.String(key))).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	return []byte(dest.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return inTxSimple(ctx, s.db, func(tx *sql.Tx) error {
		_, err := table.Collections.
			DELETE().
			WHERE(table.Collections.Key.EQ(sqlite.String(key))).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		row := model.Collections{
			Key:       key,
			Value:     string(value),
			UpdatedAt: time.Now().UTC(),
		}
		_, err = table.Collections.
			INSERT(table.Collections.AllColumns).
			MODEL(row).
			ExecContext(ctx, tx)
		return err
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := table.Collections.
		DELETE().
		WHERE(table.Collections.Key.EQ(sqlite.String(key))).
		ExecContext(ctx, s.db)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func inTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	value, err := fn(tx)
	if err != nil {
		return zero, errors.Join(err, tx.Rollback())
	}
	return value, tx.Commit()
}

func inTxSimple(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	_, err := inTx(ctx, db, func(tx *sql.Tx) (struct{}, error) { return struct{}{}, fn(tx) })
	return err
}
