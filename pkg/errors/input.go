package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInputNotFound    = errors.New("input file not found")
	ErrMissingSheet     = errors.New("asset sheet not found in input file")
	ErrMalformedTable   = errors.New("malformed table")
	ErrMissingInTable   = errors.New("IN table is missing or empty")
	ErrEmptyCell        = errors.New("empty cell inside a table")
	ErrDataWithNoHeader = errors.New("found transaction data with no header")
	ErrBadField         = errors.New("invalid field value")
)

func InputNotFoundError(path string) error {
	return fmt.Errorf("%w: %s", ErrInputNotFound, path)
}

func MissingSheetError(asset, path string) error {
	return fmt.Errorf("%w: %s (%s)", ErrMissingSheet, asset, path)
}

// MalformedTableError carries the asset sheet and 1-based row so a user can
// locate the offending line in the workbook.
func MalformedTableError(asset string, row int, reason string) error {
	return fmt.Errorf("%w: %s(%d): %s", ErrMalformedTable, asset, row, reason)
}

func MissingInTableError(asset string) error {
	return fmt.Errorf("%w: %s", ErrMissingInTable, asset)
}

func EmptyCellError(asset string, row int, table string) error {
	return fmt.Errorf("%w: %s(%d): while parsing table %s", ErrEmptyCell, asset, row, table)
}

func DataWithNoHeaderError(asset string, row int) error {
	return fmt.Errorf("%w: %s(%d)", ErrDataWithNoHeader, asset, row)
}

func BadFieldError(asset string, row int, field, value string) error {
	return fmt.Errorf("%w: %s(%d): %s=%q", ErrBadField, asset, row, field, value)
}
