package errors

import "errors"

var (
	// Input validation errors 📋
	ErrValidation = errors.New("❌ invalid product metadata")

	// Filesystem errors 📂
	ErrNotFound      = errors.New("❌ required path not found")
	ErrAlreadyExists = errors.New("❌ path already exists")
	ErrNotADirectory = errors.New("❌ not a directory")

	// Build errors 🏗️
	ErrBuild    = errors.New("❌ installer build failed")
	ErrPlatform = errors.New("❌ unsupported platform")
)
