package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
)

const recordColumns = `id, title, description, count, created_at, updated_at, timestamp,
	last_duration_seconds, duration_source`

// Insert writes a new record and returns the assigned id. r.ID is ignored.
func (db *DB) Insert(ctx context.Context, r models.Record) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO records (title, description, count, created_at, updated_at, timestamp,
			last_duration_seconds, duration_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Title, nullString(r.Description), r.Count, r.CreatedAt, r.UpdatedAt, r.Timestamp,
		nullInt64(r.LastDurationSeconds), nullString(r.DurationSource))
	if err != nil {
		return 0, apperr.Store("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperr.Store("insert", err)
	}
	return id, nil
}

// Update overwrites every mutable column of the record with id r.ID.
// created_at is never changed.
func (db *DB) Update(ctx context.Context, r models.Record) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE records SET
			title                 = ?,
			description           = ?,
			count                 = ?,
			updated_at            = ?,
			timestamp             = ?,
			last_duration_seconds = ?,
			duration_source       = ?
		WHERE id = ?
	`, r.Title, nullString(r.Description), r.Count, r.UpdatedAt, r.Timestamp,
		nullInt64(r.LastDurationSeconds), nullString(r.DurationSource), r.ID)
	if err != nil {
		return apperr.Store("update", err)
	}
	return expectRow(res, "update", r.ID)
}

// Delete removes the record with id.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return apperr.Store("delete", err)
	}
	return expectRow(res, "delete", id)
}

// DeleteAll removes every record and returns how many were deleted.
func (db *DB) DeleteAll(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return 0, apperr.Store("delete all", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store("delete all", err)
	}
	return n, nil
}

// Get returns the record with id, or an error wrapping apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (models.Record, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Record{}, apperr.Store("get", err)
	}
	return r, nil
}

// List returns every record, most recently updated first.
func (db *DB) List(ctx context.Context) ([]models.Record, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, apperr.Store("list", err)
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, apperr.Store("list", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list", err)
	}
	return out, nil
}

// IncrementAndTouch atomically adds one to count and sets updated_at and timestamp to ts.
func (db *DB) IncrementAndTouch(ctx context.Context, id int64, ts int64) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE records SET count = count + 1, updated_at = ?, timestamp = ?
		WHERE id = ?
	`, ts, ts, id)
	if err != nil {
		return apperr.Store("increment", err)
	}
	return expectRow(res, "increment", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		r        models.Record
		desc     sql.NullString
		duration sql.NullInt64
		source   sql.NullString
	)
	err := s.Scan(&r.ID, &r.Title, &desc, &r.Count, &r.CreatedAt, &r.UpdatedAt, &r.Timestamp,
		&duration, &source)
	if err != nil {
		return models.Record{}, err
	}
	r.Description = desc.String
	r.DurationSource = source.String
	if duration.Valid {
		v := duration.Int64
		r.LastDurationSeconds = &v
	}
	return r, nil
}

func expectRow(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(op, err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
