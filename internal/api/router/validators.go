package router

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the domain binding tags to gin's validator
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err = v.RegisterValidation("sex", validateSex); err != nil {
			return
		}
		if err = v.RegisterValidation("cat_selector", validateCatSelector); err != nil {
			return
		}
		err = v.RegisterValidation("deadline_kind", validateDeadlineKind)
	})
	return err
}

// sex: M or F, case-insensitive, male/female spelled out
func validateSex(fl validator.FieldLevel) bool {
	switch strings.ToUpper(strings.TrimSpace(fl.Field().String())) {
	case "M", "F", "MALE", "FEMALE":
		return true
	}
	return false
}

// cat_selector: cat1 or cat2
func validateCatSelector(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == model.Cat1 || s == model.Cat2
}

// deadline_kind: one of the known deadline names
func validateDeadlineKind(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, name := range model.DeadlineNames {
		if s == name {
			return true
		}
	}
	return false
}
