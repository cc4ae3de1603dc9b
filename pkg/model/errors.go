package model

import (
	"errors"
)

var (
	ErrAlreadyExists   = errors.New("object already exists")
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedLink = errors.New("unsupported link")
)
