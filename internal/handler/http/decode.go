package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

const (
	maxBodyBytes      = 1 << 20
	maxMultipartBytes = 10 << 20
)

// decodeFields reads a request body into a flat field map. JSON objects,
// urlencoded forms and multipart forms are accepted. Form fields keep their
// first value; uploaded files are ignored. JSON numbers are kept as
// json.Number so large integers survive.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
		if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
			return nil, apperrors.InvalidInput("invalid form body")
		}
		return formFields(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.InvalidInput("invalid form body")
		}
		return formFields(r.PostForm), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, apperrors.InvalidInput("invalid request body")
	}
	return fields, nil
}

func formFields(values map[string][]string) map[string]any {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

// decodeInput maps fields onto dst by `mapstructure` tag. Strings are
// trimmed and scalar types are converted leniently, so "12" fills an int.
// Integer fields only take base-10 whole numbers. When one does not parse,
// the earliest failing field in declaration order is reported, whether it
// is that one or a missing field before it.
func decodeInput(fields map[string]any, dst any) error {
	badNumbers := coerceWholeNumbers(fields, dst)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncKind(trimStrings),
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	if len(badNumbers) == 0 {
		return nil
	}

	var failed map[string]string
	var valErr *validator.ValidationError
	if errors.As(validator.Validate(dst), &valErr) {
		failed = valErr.Fields()
	}
	t := reflect.TypeOf(dst).Elem()
	for i := 0; i < t.NumField(); i++ {
		label := fieldLabel(t.Field(i))
		if badNumbers[label] {
			return validator.FieldError(label, msgWholeNumber)
		}
		if msg, ok := failed[label]; ok {
			return validator.FieldError(label, msg)
		}
	}
	return apperrors.InvalidInput("invalid request body")
}

const msgWholeNumber = "must be a whole number"

// coerceWholeNumbers rewrites the raw values of integer fields in dst to
// int64. Values that are not whole numbers are removed from fields and
// returned by label.
func coerceWholeNumbers(fields map[string]any, dst any) map[string]bool {
	bad := map[string]bool{}
	t := reflect.TypeOf(dst).Elem()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch ft.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		default:
			continue
		}
		key := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		raw, ok := fields[key]
		if key == "" || !ok || raw == nil {
			continue
		}
		n, ok := wholeNumber(raw)
		if !ok || reflect.Zero(ft).OverflowInt(n) {
			bad[fieldLabel(f)] = true
			delete(fields, key)
			continue
		}
		fields[key] = n
	}
	return bad
}

// wholeNumber reads v as a base-10 integer. Whole decimals such as "3.0"
// are accepted; fractions, hex and exponents beyond integer range are not.
// Empty strings read as 0 so that they count as missing.
func wholeNumber(v any) (int64, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
	case float64:
		return wholeFloat(n)
	case bool:
		return 0, false
	default:
		i, err := cast.ToInt64E(v)
		return i, err == nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return wholeFloat(f)
}

func wholeFloat(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func fieldLabel(f reflect.StructField) string {
	if label := f.Tag.Get("label"); label != "" {
		return label
	}
	return f.Name
}

func trimStrings(from, to reflect.Kind, data any) (any, error) {
	if from == reflect.String && to == reflect.String {
		return strings.TrimSpace(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}

// decodeJSON decodes a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	return nil
}
