package code

import (
	"errors"
	"fmt"
)

// Code is a registered result code with localized message and optional payload.
type Code struct {
	code   int
	status bool
	Lang   lang
	data   interface{}
	// detail strings attached at the call site
	details     []string
	haveData    bool
	haveDetails bool
}

var codes = map[int]string{}

// NewError registers an error code. Duplicate codes panic at init time.
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("error code %d already exists, pick another one", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, status: false, Lang: l}
}

var sussCodes = map[int]string{}

// NewSuss registers a success code.
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("success code %d already exists, pick another one", code))
	}
	sussCodes[code] = l.GetMessage()
	return &Code{code: code, status: true, Lang: l}
}

// Reset clears per-call state so the registered value can be reused.
func (e *Code) Reset() *Code {
	e.data = nil
	e.haveData = false
	e.details = []string{}
	e.haveDetails = false
	return e
}

// Clone creates a fresh copy so concurrent callers do not share payload state.
func (e *Code) Clone() *Code {
	return &Code{
		code:        e.code,
		status:      e.status,
		Lang:        e.Lang,
		data:        nil,
		details:     []string{},
		haveData:    false,
		haveDetails: false,
	}
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.haveData = true
	c.data = data
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.haveDetails = true
	c.details = append([]string{}, details...)
	return c
}

// Is reports whether err carries the same registered code, walking the
// error chain so wrapped codes still match.
func (e *Code) Is(err error) bool {
	var other *Code
	return errors.As(err, &other) && other.code == e.code
}
