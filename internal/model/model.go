// Package model holds the workstation tree entities, the request payloads
// accepted by the HTTP API and the tree integrity helpers.
package model

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Base carries the columns shared by every table.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var validate = newValidator()

// newValidator reports fields by their json name, or by the path parameter
// name for fields bound from the URL.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			if param := fld.Tag.Get("param"); param != "" {
				return param
			}
			return fld.Name
		}
		return name
	})
	return v
}
