package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrRegistrationFailed = errors.New("Registration failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrBookNotFound       = errors.New("Book not found")
	ErrTagNotFound        = errors.New("Tag not found")
	ErrTagExists          = errors.New("Tag already exists")
	ErrSearchFailed       = errors.New("Search failed")
	ErrCatalogNotFound    = errors.New("Book not found")
)
