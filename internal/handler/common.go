package handler // handler defines http handlers

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

// getAccountID extracts the authenticated account's uuid from the echo
// context. JWTAuth stores it under "account_id" as a string.
func getAccountID(c echo.Context) (string, error) {
	if v, ok := c.Get("account_id").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("missing account_id in context")
}

// fieldErrors accumulates validation failures keyed by field name.
// Handlers return it verbatim under the "errors" key so clients can
// annotate the offending form inputs.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) empty() bool { return len(f) == 0 }

// requireMax adds a length error when the (trimmed) value is empty and
// required, or exceeds the limit.
func (f fieldErrors) requireMax(field, value string, required bool, max int) {
	v := strings.TrimSpace(value)
	if required && v == "" {
		f.add(field, field+" is required")
		return
	}
	if len(v) > max {
		f.add(field, field+" must be at most "+itoa(max)+" characters")
	}
}

// itoa avoids pulling strconv into every call site just for error text.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// optional returns a pointer to the trimmed string or nil when blank,
// matching the nullable columns in the schema.
func optional(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}
