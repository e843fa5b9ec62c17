package domain

import (
	"oficio/internal/core/apperror"
)

// NormalizeValidationErr turns a plain validation failure into an AppError.
func NormalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	// If entity already returns structured AppError, keep it.
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// NormalizeGetErr maps a repository read failure to an AppError naming the entity.
func NormalizeGetErr(entityName string, err error, key any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, key)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", entityName).WithDetail("id", key)
}
