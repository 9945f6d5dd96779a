// Package file stores generated documents on local disk or in S3.
//
// Keys are relative slash separated paths; absolute keys and ".." segments
// are rejected with ErrInvalidKey. LocalStorage writes through a temporary
// file and rename. S3Storage maps smithy API errors onto the package
// sentinels so callers can use errors.Is.
package file
