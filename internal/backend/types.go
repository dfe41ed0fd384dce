package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the backend answers 404 for a lookup.
var ErrNotFound = errors.New("not found")

// AuthError indicates that the session token was rejected.
type AuthError struct {
	Method  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Method, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// RPCError is a non-2xx answer other than 401/404/429.
type RPCError struct {
	Method     string
	StatusCode int
	Message    string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("backend error (%d) on %s: %s", e.StatusCode, e.Method, e.Message)
}

// rpcRequest is the request envelope for every method.
type rpcRequest struct {
	Args []interface{} `json:"args"`
}

// rpcError is the error body returned by the gateway.
type rpcError struct {
	Error string `json:"error"`
}
