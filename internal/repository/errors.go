package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// ErrAdminExists is returned when a second admin account would be created.
var ErrAdminExists = errors.New("admin already exists")

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID keeps malformed identifiers away from uuid columns.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
