package db

import (
	"errors"
	"fmt"
)

// ErrEmailTaken reports a signup against an email that already has a user
// row. Handlers map it to a conflict; any other user-write failure is a
// server error.
var ErrEmailTaken = errors.New("email already registered")

// DimensionError reports an embedding whose dimensionality does not match
// the collection. All embeddings in one collection must share a dimension;
// the recovery path is an explicit collection reset, not automatic repair.
type DimensionError struct {
	Collection string
	Want       int
	Got        int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf(
		"embedding dimension mismatch in collection %q: collection stores %d-dimensional vectors, got %d; reset the collection (POST /api/reset_vectorstore) and re-ingest",
		e.Collection, e.Want, e.Got)
}

// CollectionMissingError reports an operation against a collection that was
// never created.
type CollectionMissingError struct {
	Collection string
}

func (e *CollectionMissingError) Error() string {
	return fmt.Sprintf("collection %q does not exist", e.Collection)
}
