package infra

import (
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

const maxStackDepth = 32

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFile", 0
	}
	return fn.FileLine(frame.pc())
}

func (frame Frame) name() string {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - equivalent to %s:%d
// %+s - function name and full path, separated by \n\t
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	file, line := frame.fileLine()
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, file)
		} else {
			_, _ = io.WriteString(s, path.Base(file))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'n':
		_, _ = io.WriteString(s, funcName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

// MarshalText renders "<func> <file>:<line>", or "unknownFrame".
func (frame Frame) MarshalText() ([]byte, error) {
	name := frame.name()
	if name == "unknownFunc" {
		return []byte("unknownFrame"), nil
	}
	file, line := frame.fileLine()
	builder := strings.Builder{}
	_, _ = builder.WriteString(name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(file)
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(line))
	return []byte(builder.String()), nil
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

type stack []Frame

func (st stack) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, frame := range st {
		text, _ := frame.MarshalText()
		enc.AppendByteString(text)
	}
	return nil
}

func callers(skip int) stack {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	st := make(stack, 0, n)
	for i := 0; i < n; i++ {
		st = append(st, Frame(pcs[i]))
	}
	return st
}

// ErrorStack is an error carrying the call stack where it was created
// or wrapped. It can be inlined into a zap entry.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() error
	Stack() []Frame
}

var _ ErrorStack = (*errorStack)(nil)

type errorStack struct {
	msg   string
	cause error
	stack stack
}

func (es *errorStack) Error() string {
	switch {
	case es.cause == nil:
		return es.msg
	case len(es.msg) == 0:
		return es.cause.Error()
	}
	return es.msg + ": " + es.cause.Error()
}

func (es *errorStack) Unwrap() error {
	return es.cause
}

func (es *errorStack) Stack() []Frame {
	return es.stack
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	return enc.AddArray("errorStack", es.stack)
}

// NewErrorStack records the caller's stack.
func NewErrorStack(msg string) error {
	return &errorStack{
		msg:   msg,
		stack: callers(3),
	}
}

// WrapErrorStack returns nil if err is nil. An err which already carries a
// stack is returned as is.
func WrapErrorStack(err error) error {
	if err == nil {
		return nil
	}
	var es ErrorStack
	if errors.As(err, &es) {
		return err
	}
	return &errorStack{
		cause: err,
		stack: callers(3),
	}
}

func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		msg:   msg,
		cause: err,
		stack: callers(3),
	}
}
