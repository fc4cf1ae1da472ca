// Package storage содержит общие ошибки слоя хранения данных.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists запись с таким ключом уже существует.
	ErrAlreadyExists = errors.New("record already exists")
)
