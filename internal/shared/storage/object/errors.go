package object

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an absent object on read or delete.
var ErrNotFound = errors.New("object not found")

// StorageError wraps a failure returned by the storage service. These are
// surfaced unchanged to callers and never retried here.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s bucket=%s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("storage %s bucket=%s key=%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigError reports a missing or invalid storage setting at startup.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("storage config %s: %s", e.Setting, e.Reason)
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Wrap builds a StorageError, mapping missing objects to ErrNotFound while
// keeping the service error reachable through errors.As.
func Wrap(op, bucket, key string, err error, notFound bool) error {
	if err == nil {
		return nil
	}
	if notFound {
		return &StorageError{Op: op, Bucket: bucket, Key: key, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	return &StorageError{Op: op, Bucket: bucket, Key: key, Err: err}
}
