package assets

import "errors"

// Lookup failures. The not-found pair lets the resolver fall back to the
// embedded copy; every other error is returned as is.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
)

// Validation and I/O failures.
var (
	ErrInvalidAssetName = errors.New("invalid asset name") // separators, dots or leading hyphen
	ErrInvalidBasePath  = errors.New("invalid base path")
	ErrAssetRead        = errors.New("failed to read asset")
	ErrPathTraversal    = errors.New("path traversal detected") // symlink escaping the base path
)
