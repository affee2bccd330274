package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("record not found")

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
