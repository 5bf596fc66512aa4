package importer

import "errors"

var (
	// ErrUnsupportedFormat indicates a file extension the loader does not handle.
	ErrUnsupportedFormat = errors.New("importer: unsupported file format")

	// ErrEmptyFile indicates the input contained no rows at all.
	ErrEmptyFile = errors.New("importer: empty file")

	// ErrEmptyHeader indicates a missing or blank column name in the header row.
	ErrEmptyHeader = errors.New("importer: empty column name in header")

	// ErrDuplicateColumn indicates two header columns share a name.
	ErrDuplicateColumn = errors.New("importer: duplicate column name")
)
