package models

import (
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the enum validators used in binding tags.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("libraryrole", validateRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("loanstatus", validateLoanStatus); err != nil {
		return err
	}
	return v.RegisterValidation("finestatus", validateFineStatus)
}

func validateRole(fl validator.FieldLevel) bool {
	return UserRole(fl.Field().String()).IsValid()
}

func validateLoanStatus(fl validator.FieldLevel) bool {
	return LoanStatus(fl.Field().String()).IsValid()
}

func validateFineStatus(fl validator.FieldLevel) bool {
	return FineStatus(fl.Field().String()).IsValid()
}
