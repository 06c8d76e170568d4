package request

import "errors"

var (
	// ErrParse is returned when a response declares a JSON content type
	// but its body is not valid JSON.
	ErrParse = errors.New("malformed json response body")

	// ErrAlreadySent is returned when a Builder is dispatched a second time.
	ErrAlreadySent = errors.New("request already sent")

	// ErrPathSection is recorded when WithPathSection receives a negative index.
	ErrPathSection = errors.New("path section index out of range")
)
