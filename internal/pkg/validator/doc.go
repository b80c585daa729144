// Package validator checks request and dependency structs against their
// `validate` tags. Callers depend on the Validator interface; the concrete
// implementation wraps go-playground/validator v10 with English messages
// and snake_case field keys, matching the JSON the API speaks.
package validator
