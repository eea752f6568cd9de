package cmd

import (
	"errors"
	"strings"
)

// FormatErrorChain renders err one wrapped layer per line:
//
//	Error: failed minifying files
//	  caused by: failed minifying png file "a.png"
//	  caused by: image codec failure: png: invalid format
//
// A layer whose message does not end in its cause's message, or that wraps
// several errors, is printed whole and ends the chain.
func FormatErrorChain(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	prefix := "Error: "
	for err != nil {
		msg := err.Error()
		inner := errors.Unwrap(err)
		if inner != nil {
			if trimmed, ok := strings.CutSuffix(msg, ": "+inner.Error()); ok {
				msg = trimmed
			} else {
				inner = nil
			}
		}
		b.WriteString(prefix)
		b.WriteString(msg)
		if inner != nil {
			b.WriteByte('\n')
		}
		prefix = "  caused by: "
		err = inner
	}
	return b.String()
}
