package repository

import "errors"

// Общие ошибки репозитория.
var (
	ErrBuildQuery   = errors.New("failed to build SQL query")
	ErrExecuteQuery = errors.New("failed to execute query")
	ErrScanResult   = errors.New("failed to scan result")
	ErrEncodeValue  = errors.New("failed to encode value")
)

// Коды ошибок PostgreSQL, которые означают некорректные данные клиента.
const (
	pgCodeUntranslatableCharacter   = "22P05"
	pgCodeInvalidTextRepresentation = "22P02"
)
