package validator

import (
	"ctchen222/tictactoe-minimax/internal/bot"
	"ctchen222/tictactoe-minimax/internal/game"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	// Initialize validation
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterGameValidations(validate); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// RegisterGameValidations adds the "mark" and "difficulty" tags to v.
func RegisterGameValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("mark", validateMark); err != nil {
		return fmt.Errorf("failed to register mark validation: %w", err)
	}
	if err := v.RegisterValidation("difficulty", validateDifficulty); err != nil {
		return fmt.Errorf("failed to register difficulty validation: %w", err)
	}
	return nil
}

// RegisterGinValidations installs the game tags on gin's binding validator.
func RegisterGinValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return RegisterGameValidations(v)
}

func validateMark(fl validator.FieldLevel) bool {
	mark, err := game.ParseMark(fl.Field().String())
	return err == nil && mark != game.Empty
}

func validateDifficulty(fl validator.FieldLevel) bool {
	switch bot.Difficulty(fl.Field().String()) {
	case bot.Easy, bot.Medium, bot.Hard:
		return true
	}
	return false
}
