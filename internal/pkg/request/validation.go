package request

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// RegisterValidators installs the custom tags used by request DTOs on gin's validator engine.
//
//	date:  YYYY-MM-DD calendar day
//	clock: HH:MM or HH:MM:SS time of day
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("date", isDate); err != nil {
		return fmt.Errorf("register date validator: %w", err)
	}
	if err := v.RegisterValidation("clock", isClock); err != nil {
		return fmt.Errorf("register clock validator: %w", err)
	}
	return nil
}

func isDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func isClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if _, err := time.Parse(ClockLayout, s); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", s)
	return err == nil
}
