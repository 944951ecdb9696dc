package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// RegisterValidators adds the ledger rules to gin's binding validator
func RegisterValidators() error {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	configureValidator(validate)
	return validate.RegisterValidation("amount", validateAmount)
}

func configureValidator(validate *validator.Validate) {
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// validateAmount accepts a positive decimal the ledger can store without rounding
func validateAmount(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return shared.ValidAmount(amount)
}
