package qerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// PrintStacks makes FormatWithCode include the frame an error was raised at
var PrintStacks = false

type Code int

const (
	None Code = iota

	// codes below are TypeSystemError codes: the qualifier system definition is invalid
	DuplicateQualifier
	UnknownQualifier
	MissingSupertypes
	PolymorphicWithSupertypes
	PolymorphicTop
	CycleInHierarchy
	AmbiguousTop
	TopBottomMismatch
	NotALattice
	ConflictingTable
	PayloadNotAllowed
	TopWithSupertypes
	InvalidFile
	UnknownPayloadOps
	UnknownSystem

	// codes below are Bug codes: the framework reached a state it should never reach
	Uninitialized Code = iota + 100
	UnhandledCombo
	ShapeMismatch
	ArgumentCount
	NotASubtype
	Unrelated
	EmptyQualifiers
)

// Coded is implemented by both error classes
type Coded interface {
	error
	Code() Code
}

// TypeSystemError reports a malformed qualifier system: it is
// a problem with the checker's definition, not with analysed code.
// It is always returned, never panicked.
type TypeSystemError struct {
	code Code
	msg  string
}

func (e *TypeSystemError) Error() string { return e.msg }
func (e *TypeSystemError) Code() Code    { return e.code }

// Bug reports a framework defect, like a dispatch pair nobody handles
// or a type shape that contradicts the declaration model.
// Bugs are raised with panic by Bugf and recovered at API boundaries with Recover.
type Bug struct {
	code Code
	msg  string
}

func (e *Bug) Error() string { return "bug: " + e.msg }
func (e *Bug) Code() Code    { return e.code }

func NewTypeSystem(code Code, format string, args ...any) error {
	return errors.WithStack(&TypeSystemError{code: code, msg: fmt.Sprintf(format, args...)})
}

func NewBug(code Code, format string, args ...any) error {
	return errors.WithStack(&Bug{code: code, msg: fmt.Sprintf(format, args...)})
}

// Bugf panics with a Bug
func Bugf(code Code, format string, args ...any) {
	panic(NewBug(code, format, args...))
}

func IsTypeSystemError(err error) bool {
	var tse *TypeSystemError
	return errors.As(err, &tse)
}

func IsBug(err error) bool {
	var bug *Bug
	return errors.As(err, &bug)
}

// CodeOf returns None for errors not created by this package
func CodeOf(err error) Code {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return None
}

// Recover must be deferred directly. It turns a Bug panic into an error
// assigned to err, and re-panics with anything else.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if asErr, ok := r.(error); ok && IsBug(asErr) {
		*err = asErr
		return
	}
	panic(r)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func FormatWithCode(err error) string {
	code := CodeOf(err)
	var st stackTracer
	if PrintStacks && errors.As(err, &st) && len(st.StackTrace()) > 1 {
		// frame 0 is the constructor in this package
		return fmt.Sprintf("%v:(E%03d) %s", st.StackTrace()[1], code, err.Error())
	}
	return fmt.Sprintf("(E%03d) %s", code, err.Error())
}
