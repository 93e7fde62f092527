// Package validation validates configuration structs using
// go-playground/validator tags and reports failures as AppErrors.
package validation
