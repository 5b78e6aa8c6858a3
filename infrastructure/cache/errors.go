package cache

import "fmt"

// Operations reported in CacheBackendError.
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
)

// CacheBackendError reports a failure of the underlying store. It is distinct from a miss.
type CacheBackendError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheBackendError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheBackendError) Unwrap() error {
	return e.Err
}
