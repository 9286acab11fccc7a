package patch

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Load error codes (E300-E399).
const (
	ErrCodeRead       = "E301" // file could not be read
	ErrCodeFormat     = "E302" // unknown file extension
	ErrCodeParse      = "E303" // YAML or CUE syntax or evaluation error
	ErrCodeName       = "E304" // missing, empty or duplicate name
	ErrCodeDefault    = "E305" // parameter default missing or malformed
	ErrCodeReference  = "E306" // expression refers to an unknown name
	ErrCodeOperation  = "E307" // unknown operation
	ErrCodeArity      = "E308" // wrong number of operation arguments
	ErrCodeExpression = "E309" // malformed expression
	ErrCodeMissingOut = "E310" // no output expression
	ErrCodeNotFound   = "E311" // no built-in or file by that name
)

// LoadError reports why a patch could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	loc := e.Path
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}
