package file

import "errors"

var (
	ErrInvalidConfig      = errors.New("file: invalid configuration")
	ErrInvalidKey         = errors.New("file: invalid object key")
	ErrFileNotFound       = errors.New("file: not found")
	ErrEmptyContent       = errors.New("file: empty content")
	ErrFailedToWriteFile  = errors.New("file: failed to write")
	ErrFailedToDelete     = errors.New("file: failed to delete")
	ErrFailedToLoadConfig = errors.New("file: failed to load AWS config")
	ErrBucketNotFound     = errors.New("file: bucket not found")
	ErrAccessDenied       = errors.New("file: access denied")
)
