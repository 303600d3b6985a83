package utils

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// DateTimeLayout is dd/MM/yyyy HH:mm.
const DateTimeLayout = "02/01/2006 15:04"

// DateTimeFormat is DateTimeLayout spelled the way clients read it.
const DateTimeFormat = "dd/MM/yyyy HH:mm"

// DateTime is a UTC instant that goes over the wire as DateTimeLayout.
// It converts to time.Time so validator's time rules (required, gtfield) apply to it.
type DateTime time.Time

func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UTC())
}

func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.UTC)
}

func (d DateTime) Time() time.Time {
	return time.Time(d)
}

func (d DateTime) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d DateTime) String() string {
	return time.Time(d).UTC().Format(DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = DateTime{}
		return nil
	}

	var s string

	err := json.Unmarshal(b, &s)

	if err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: DateTimeType}
	}

	t, err := ParseDateTime(s)

	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: DateTimeType}
	}

	*d = DateTime(t)

	return nil
}

var DateTimeType = reflect.TypeOf(DateTime{})
