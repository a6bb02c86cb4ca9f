package student

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

// ID is the server-assigned identifier of a student. It is opaque to the console:
// both JSON strings and JSON numbers are accepted.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "student id")
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Record struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`
}

// Payload is a student record without its id, as sent on create and update.
type Payload struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`
}

// Form holds the values entered by the operator. Age is kept as typed.
type Form struct {
	Name   string `json:"name" validate:"required"`
	Age    string `json:"age" validate:"required,numeric"`
	Course string `json:"course" validate:"required"`
}

// FormFrom prefills a Form with rec.
func FormFrom(rec Record) Form {
	return Form{Name: rec.Name, Age: strconv.Itoa(rec.Age), Course: rec.Course}
}

// Payload validates the form and converts it. Range checks on age are left to the remote side.
func (f Form) Payload(validate *validator.Validate, translator ut.Translator) (Payload, error) {
	f = Form{Name: core.CleanString(f.Name), Age: core.CleanString(f.Age), Course: core.CleanString(f.Course)}
	if err := validate.Struct(f); err != nil {
		return Payload{}, core.TranslateValidationErrors(err, translator)
	}
	age, err := strconv.Atoi(f.Age)
	if err != nil {
		return Payload{}, core.NewValidationError(
			errors.New("age: must be entered as a number"),
			core.FieldError{Field: "age", Error: "must be entered as a number"},
		)
	}
	return Payload{Name: f.Name, Age: age, Course: f.Course}, nil
}

// Client is the remote student resource.
type Client interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, p Payload) (Record, error)
	Update(ctx context.Context, id ID, p Payload) (Record, error)
	Delete(ctx context.Context, id ID) error
}
