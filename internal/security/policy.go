package security

import "fmt"

// Rules a credential can violate. Each failed check reports exactly one rule
// so callers can surface the first failing requirement.
const (
	RuleUsernameTooShort  = "username_too_short"
	RuleUsernameTooLong   = "username_too_long"
	RuleUsernameCharset   = "username_charset"
	RulePasswordTooShort  = "password_too_short"
	RulePasswordTooLong   = "password_too_long"
	RulePasswordUppercase = "password_uppercase"
	RulePasswordLowercase = "password_lowercase"
	RulePasswordDigit     = "password_digit"
	RulePasswordSymbol    = "password_symbol"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 32
	passwordMinLen = 8
	passwordMaxLen = 64
)

// passwordSymbols is the fixed punctuation set accepted for the symbol rule.
const passwordSymbols = "!@#$%^&*(),.?:{}|<>"

// PolicyViolation describes why a username or password fails shape or
// strength rules. It is always safe to return to the caller.
type PolicyViolation struct {
	Rule    string
	Message string
}

func (v *PolicyViolation) Error() string { return v.Message }

func violation(rule, format string, args ...any) *PolicyViolation {
	return &PolicyViolation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ValidateUsername checks the username shape: letters, digits, and
// underscores only, length 3 to 32. Returns the first violated rule.
func ValidateUsername(username string) error {
	if len(username) < usernameMinLen {
		return violation(RuleUsernameTooShort, "username must be at least %d characters", usernameMinLen)
	}
	if len(username) > usernameMaxLen {
		return violation(RuleUsernameTooLong, "username must be at most %d characters", usernameMaxLen)
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return violation(RuleUsernameCharset, "username must contain only letters, numbers, and underscores")
		}
	}
	return nil
}

// ValidatePassword checks password strength: length 8 to 64 with at least one
// uppercase letter, one lowercase letter, one digit, and one symbol from the
// fixed punctuation set. Checks run cheapest first and the first violated
// rule is returned.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLen {
		return violation(RulePasswordTooShort, "password must be at least %d characters", passwordMinLen)
	}
	if len(password) > passwordMaxLen {
		return violation(RulePasswordTooLong, "password must be at most %d characters", passwordMaxLen)
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			for _, s := range passwordSymbols {
				if r == s {
					hasSymbol = true
					break
				}
			}
		}
	}
	if !hasUpper {
		return violation(RulePasswordUppercase, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		return violation(RulePasswordLowercase, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return violation(RulePasswordDigit, "password must contain at least one number")
	}
	if !hasSymbol {
		return violation(RulePasswordSymbol, "password must contain at least one special character")
	}
	return nil
}
