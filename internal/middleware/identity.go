package middleware

// identity.go defines helpers shared across middleware files. The rate
// limiter keys buckets per account where possible; requests without an
// authenticated account fall back to "anon".

import "github.com/labstack/echo/v4"

// currentAccountID extracts the authenticated account id placed in the
// context by JWTAuth. It returns "anon" when no account is present,
// which keeps unauthenticated traffic in a shared bucket.
func currentAccountID(c echo.Context) string {
	if v := c.Get("account_id"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anon"
}
