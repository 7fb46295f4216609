// Package fieldfmt converts between dynamic values and the human-editable
// string form each declared field type uses, and describes the input widget
// a presentation layer should render for it. Validation here is advisory:
// the server's validation response remains authoritative and may flag
// fields this layer accepted.
package fieldfmt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tablekit/remotectl/model"
)

// MaskedPassword is the display form of every password value. The underlying
// value is never masked, only its display string.
const MaskedPassword = "••••••••"

const (
	dateLayout       = "2006-01-02"
	dateDisplay      = "Jan 2, 2006"
	datetimeDisplay  = "1/2/06 3:04 PM"
	decimalPrecision = 2
)

// InvalidInputError reports that an edited string is not convertible to its
// declared field type.
type InvalidInputError struct {
	Type  model.FieldType
	Input string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("fieldfmt: %q is not a valid %s value", e.Input, e.Type)
}

// Display renders a value for read-only presentation according to its
// declared type. Values that do not match their declared type fall back to
// their raw text form rather than erroring; fetched data is displayed as-is
// when it cannot be interpreted.
func Display(v model.Value, t model.FieldType) string {
	if v.IsNull() {
		return ""
	}

	switch t {
	case model.FieldPassword:
		return MaskedPassword

	case model.FieldBoolean:
		if b, ok := v.AsBool(); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
		return v.Text()

	case model.FieldInteger:
		if i, ok := v.AsInt(); ok {
			return strconv.FormatInt(i, 10)
		}
		return v.Text()

	case model.FieldDecimal:
		if f, ok := v.AsFloat(); ok {
			return strconv.FormatFloat(f, 'f', decimalPrecision, 64)
		}
		return v.Text()

	case model.FieldDate:
		if s, ok := v.AsString(); ok {
			if parsed, err := time.Parse(dateLayout, s); err == nil {
				return parsed.Format(dateDisplay)
			}
		}
		return v.Text()

	case model.FieldDateTime:
		if s, ok := v.AsString(); ok {
			if parsed, err := time.Parse(time.RFC3339, s); err == nil {
				return parsed.Format(datetimeDisplay)
			}
		}
		return v.Text()

	case model.FieldJSON:
		return v.Text()

	case model.FieldString, model.FieldText, model.FieldEmail, model.FieldURL:
		return v.Text()

	default:
		return v.Text()
	}
}

// Parse converts an edited string into a value of the declared type.
// An empty string parses as null for every non-string type; the string
// family keeps empty strings as-is so a cleared text box stays a string.
func Parse(s string, t model.FieldType) (model.Value, error) {
	switch t {
	case model.FieldString, model.FieldText, model.FieldEmail,
		model.FieldURL, model.FieldPassword:
		return model.String(s), nil
	}

	if s == "" {
		return model.Null(), nil
	}

	switch t {
	case model.FieldInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return model.Null(), &InvalidInputError{Type: t, Input: s}
		}
		return model.Int(i), nil

	case model.FieldDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return model.Null(), &InvalidInputError{Type: t, Input: s}
		}
		return model.Float(f), nil

	case model.FieldBoolean:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return model.Bool(true), nil
		case "false", "0", "no":
			return model.Bool(false), nil
		}
		return model.Null(), &InvalidInputError{Type: t, Input: s}

	case model.FieldDate:
		if _, err := time.Parse(dateLayout, s); err != nil {
			return model.Null(), &InvalidInputError{Type: t, Input: s}
		}
		return model.String(s), nil

	case model.FieldDateTime:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return model.Null(), &InvalidInputError{Type: t, Input: s}
		}
		return model.String(s), nil

	case model.FieldJSON:
		// Never hard-fails here: a string that is not JSON is carried as an
		// opaque string and left to the server to judge. Valid JSON is kept
		// in string form too; the record codec unwraps it on encode.
		return model.String(s), nil

	default:
		return model.String(s), nil
	}
}

// Widget describes the input control a presentation layer should render for
// a field type.
type Widget struct {
	Control     string
	Placeholder string
	Masked      bool
	Multiline   bool
}

// widgets is a total mapping over the field type enum. Adding a new field
// type means adding one entry here, one Display arm, and one Parse arm.
var widgets = map[model.FieldType]Widget{
	model.FieldString:   {Control: "text", Placeholder: "Enter text"},
	model.FieldText:     {Control: "textarea", Placeholder: "Enter long text", Multiline: true},
	model.FieldInteger:  {Control: "number", Placeholder: "Enter a whole number"},
	model.FieldDecimal:  {Control: "number", Placeholder: "Enter a decimal number (e.g. 123.45)"},
	model.FieldBoolean:  {Control: "toggle", Placeholder: "Yes or No"},
	model.FieldDate:     {Control: "date", Placeholder: "yyyy-MM-dd"},
	model.FieldDateTime: {Control: "datetime", Placeholder: "Pick date and time"},
	model.FieldEmail:    {Control: "email", Placeholder: "example@domain.com"},
	model.FieldURL:      {Control: "url", Placeholder: "https://example.com"},
	model.FieldPassword: {Control: "password", Placeholder: "Enter password", Masked: true},
	model.FieldJSON:     {Control: "textarea", Placeholder: "Enter JSON", Multiline: true},
}

// WidgetFor returns the widget descriptor for a field type. Unknown types
// fall back to a plain text control.
func WidgetFor(t model.FieldType) Widget {
	if w, ok := widgets[t]; ok {
		return w
	}
	return widgets[model.FieldString]
}

// IsJSON reports whether an edited string is well-formed JSON. Used for
// inline hints on json fields; it never blocks submission.
func IsJSON(s string) bool {
	return json.Valid([]byte(s))
}
