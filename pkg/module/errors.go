package module

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound matches every *NotFoundError.
	ErrModuleNotFound = errors.New("module not found")
	// ErrInvalidRequest is returned for empty or non-string request ids.
	ErrInvalidRequest = errors.New("invalid module request")
)

// NotFoundError reports a request that resolved to no file
type NotFoundError struct {
	Request string
	Parent  string // Filename of the requesting module, if any
}

func (e *NotFoundError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("Cannot find module '%s'", e.Request)
	}
	return fmt.Sprintf("Cannot find module '%s' from '%s'", e.Request, e.Parent)
}

// Code returns the Node.js style error code
func (e *NotFoundError) Code() string {
	return "MODULE_NOT_FOUND"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrModuleNotFound
}

// WrapperError reports wrapped module source that did not evaluate to a function
type WrapperError struct {
	Filename string
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("%s: module wrapper did not evaluate to a function", e.Filename)
}
