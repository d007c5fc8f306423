// Package validate implements field-level credential validation.
//
// Every validator applies its rules in a fixed order and reports the
// first failing rule. The returned string is a user-facing message;
// an empty string means the value is valid. Validators never perform
// I/O, so callers may re-run them on every keystroke.
package validate

import (
	"regexp"
	"strings"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitPattern   = regexp.MustCompile(`\d`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	namePattern    = regexp.MustCompile(`^[A-Za-z\s]+$`)
	accountPattern = regexp.MustCompile(`^\d+$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// Name requires letters and spaces only, at least 2 characters after
// trimming.
func Name(name string) string {
	if name == "" {
		return "Name is required"
	}
	if !namePattern.MatchString(name) {
		return "Name can only contain alphabets and spaces"
	}
	if len(strings.TrimSpace(name)) < 2 {
		return "Name must be at least 2 characters"
	}
	return ""
}

// Email checks presence, then the @ symbol, then the full
// local@domain.tld shape. The @ rule fires before the pattern rule so
// the user sees the most specific message.
func Email(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !strings.Contains(email, "@") {
		return "Email must contain @ symbol"
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email format"
	}
	return ""
}

// Password requires at least 8 characters, one digit and one
// uppercase letter, reported in that order.
func Password(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters"
	}
	if !digitPattern.MatchString(password) {
		return "Password must contain at least one number"
	}
	if !upperPattern.MatchString(password) {
		return "Password must contain at least one uppercase letter"
	}
	return ""
}

// PasswordConfirm requires an exact match with the primary password.
func PasswordConfirm(confirm, password string) string {
	if confirm == "" {
		return "Please confirm your password"
	}
	if confirm != password {
		return "Passwords do not match"
	}
	return ""
}

// AccountNumber requires digits only, 9 to 18 of them.
func AccountNumber(accountNumber string) string {
	if accountNumber == "" {
		return "Account number is required"
	}
	if !accountPattern.MatchString(accountNumber) {
		return "Account number can only contain numbers"
	}
	if len(accountNumber) < 9 || len(accountNumber) > 18 {
		return "Account number must be between 9-18 digits"
	}
	return ""
}

// IFSC requires exactly 11 uppercase letters and digits. Lowercase
// input is uppercased before validation.
func IFSC(ifsc string) string {
	ifsc = strings.ToUpper(ifsc)
	if ifsc == "" {
		return "IFSC code is required"
	}
	if !ifscPattern.MatchString(ifsc) {
		return "IFSC code can only contain uppercase letters and numbers"
	}
	if len(ifsc) != 11 {
		return "IFSC code must be exactly 11 characters"
	}
	return ""
}
