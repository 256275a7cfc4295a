package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a manually entered or imported position.
func (p Position) Validate() error {
	return check(p)
}

// Validate checks the account balances.
func (a Account) Validate() error {
	return check(a)
}

// Validate checks an option position before its delta is estimated.
func (o OptionPosition) Validate() error {
	return check(o)
}

// Validate checks a trade log entry.
func (t Trade) Validate() error {
	return check(t)
}

func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid %T: %s", v, strings.Join(msgs, ", "))
}
