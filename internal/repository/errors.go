package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicate is returned when an insert collides with a unique key
var ErrDuplicate = errors.New("repository: duplicate key")

func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
