package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthenticated is returned when login credentials do not check out
// or a token cannot be verified. The message is deliberately the same
// for an unknown username and a wrong password.
var ErrUnauthenticated = errors.New("invalid credentials")

// ErrForbidden is returned when the caller is authenticated but does not
// own the resource they are operating on.
var ErrForbidden = errors.New("you do not have permission to access this movie")

// ValidationError carries one message per violated field so the caller
// sees every problem at once instead of just the first.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}
