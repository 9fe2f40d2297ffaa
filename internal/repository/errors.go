package repository

import (
	"errors"

	"github.com/jmehdipour/billing-sync/internal/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// mapWriteErr converts driver unique violations into ErrDuplicate.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if db.IsDuplicateKey(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
