package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// NormalizePhoneNumber returns the E.164 form of a valid phone number for
// countryCode (ISO region, e.g. "IN").
func NormalizePhoneNumber(phoneNumber, countryCode string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// ProcessValidationErrors maps binding failures to field -> rule.
// Errors that are not validator errors (bad JSON etc.) come back under "body".
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["body"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		field := ve.Field()
		if ns := ve.Namespace(); strings.Contains(ns, ".") {
			field = ns[strings.Index(ns, ".")+1:]
		}
		errorResponse[field] = ve.Tag()
	}
	return errorResponse
}
