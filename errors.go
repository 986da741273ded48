/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import "errors"

// Logical/state errors surfaced to clients as explicit outcomes rather than
// silence. Transport and protocol errors are not listed here; those end the
// session instead.
var (
	ErrAlreadyRegistered = errors.New("username is already registered")
	ErrInvalidUsername   = errors.New("username must not be empty")
	ErrNotLoggedIn       = errors.New("you must log in first")
	ErrNotTeamed         = errors.New("you must join a team first")
	ErrAlreadyTeamed     = errors.New("you are already in a team")
	ErrNotInGame         = errors.New("no game is in progress")
)
