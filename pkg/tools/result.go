package tools

import (
	"errors"
	"fmt"
)

// PersonaTag prefixes the rendered output of tagged tools.
const PersonaTag = "JARVIS: "

// Result is the tagged outcome of a tool call. A zero Err means Ok.
// Text always carries the user-facing message for either case.
type Result struct {
	Text string
	Err  error
}

// OK returns a successful result.
func OK(text string) Result {
	return Result{Text: text}
}

// Failed returns a failed result with a user-facing text and its cause.
func Failed(text string, err error) Result {
	if err == nil {
		err = errors.New(text)
	}
	return Result{Text: text, Err: err}
}

// Failedf returns a failed result for an unexpected error, formatted as
// "Error <action>: <cause>".
func Failedf(err error, action string, args ...any) Result {
	return Failed(fmt.Sprintf("Error %s: %v", fmt.Sprintf(action, args...), err), err)
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// String implements fmt.Stringer.
func (r Result) String() string {
	return r.Text
}

// Render converts a result to the single string returned across the
// runtime boundary.
func Render(r Result, tagged bool) string {
	if tagged {
		return PersonaTag + r.Text
	}
	return r.Text
}
