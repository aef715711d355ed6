package service

import (
	"fmt"
	"strings"

	"employee-portal/internal/auth-service/core/domain/models"
	"employee-portal/internal/auth-service/core/myerrors"
)

const (
	MinUserNameLen = 1
	MaxUserNameLen = 100

	MinEmailLen = 5
	MaxEmailLen = 100

	MinPasswordLen = 5
	MaxPasswordLen = 50
)

var AllowedRoles = map[string]bool{
	models.RoleAdmin: true,
	models.RoleUser:  true,
}

func validateRegistration(userName, email, password string) error {
	if err := validateName(userName); err != nil {
		return fmt.Errorf("%w: invalid name: %v", myerrors.ErrValidation, err)
	}

	if err := validateEmail(email); err != nil {
		return fmt.Errorf("%w: invalid email: %v", myerrors.ErrValidation, err)
	}

	if err := validatePassword(password); err != nil {
		return fmt.Errorf("%w: invalid password: %v", myerrors.ErrValidation, err)
	}

	return nil
}

func validateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return fmt.Errorf("%w: invalid email: %v", myerrors.ErrValidation, err)
	}

	if err := validatePassword(password); err != nil {
		return fmt.Errorf("%w: invalid password: %v", myerrors.ErrValidation, err)
	}
	return nil
}

func validateName(userName string) error {
	if userName == "" {
		return fmt.Errorf("field is empty")
	}

	nameLen := len(userName)
	if nameLen < MinUserNameLen || nameLen > MaxUserNameLen {
		return fmt.Errorf("must be in range [%d, %d]", MinUserNameLen, MaxUserNameLen)
	}

	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("field is empty")
	}

	emailLen := len(email)
	if emailLen < MinEmailLen || emailLen > MaxEmailLen {
		return fmt.Errorf("must be in range [%d, %d]", MinEmailLen, MaxEmailLen)
	}

	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("must contain exactly one @")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("field is empty")
	}

	passwordLen := len(password)
	if passwordLen < MinPasswordLen || passwordLen > MaxPasswordLen {
		return fmt.Errorf("must be in range [%d, %d]", MinPasswordLen, MaxPasswordLen)
	}
	return nil
}

func validateRole(role string) error {
	if !AllowedRoles[role] {
		return fmt.Errorf("%w: unknown role %q", myerrors.ErrValidation, role)
	}
	return nil
}
