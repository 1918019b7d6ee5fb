package auth

import (
	"regexp"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

var specialChars = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>_\-+=\[\]\\/]`)

// PasswordRules enforces the account password policy. bcrypt ignores
// anything past 72 bytes so longer passwords are rejected outright.
var PasswordRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(8, 72),
	validation.By(containsClass("an uppercase letter", unicode.IsUpper)),
	validation.By(containsClass("a lowercase letter", unicode.IsLower)),
	validation.By(containsClass("a digit", unicode.IsDigit)),
	validation.Match(specialChars).Error("must contain a special character"),
}

func containsClass(name string, pred func(rune) bool) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		for _, r := range s {
			if pred(r) {
				return nil
			}
		}
		return validation.NewError("validation_password_class", "must contain "+name)
	}
}
