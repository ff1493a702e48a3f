package rpc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fields reads typed values out of a request struct. Missing keys read as zero values.
type Fields struct {
	m map[string]*structpb.Value
}

func FieldsOf(s *structpb.Struct) Fields {
	if s == nil {
		return Fields{}
	}
	return Fields{m: s.GetFields()}
}

func (f Fields) Has(key string) bool {
	v, ok := f.m[key]
	if !ok {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

func (f Fields) String(key string) string {
	return f.m[key].GetStringValue()
}

func (f Fields) Bool(key string) bool {
	return f.m[key].GetBoolValue()
}

// Int64 accepts a whole number or a decimal string.
func (f Fields) Int64(key string) (int64, error) {
	v, ok := f.m[key]
	if !ok {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) {
			return 0, invalidField(key, "must be a whole number")
		}
		return int64(k.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, invalidField(key, "must be a whole number")
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	default:
		return 0, invalidField(key, "must be a whole number")
	}
}

func (f Fields) Int(key string) (int, error) {
	n, err := f.Int64(key)
	return int(n), err
}

// Decimal accepts a number or a string; strings keep exact cents.
func (f Fields) Decimal(key string) (decimal.Decimal, error) {
	v, ok := f.m[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(k.NumberValue), nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return decimal.Zero, invalidField(key, "must be a decimal amount")
		}
		return d, nil
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	default:
		return decimal.Zero, invalidField(key, "must be a decimal amount")
	}
}

// List returns the struct elements of a list field; non-struct elements are skipped.
func (f Fields) List(key string) []Fields {
	values := f.m[key].GetListValue().GetValues()
	out := make([]Fields, 0, len(values))
	for _, v := range values {
		if s := v.GetStructValue(); s != nil {
			out = append(out, FieldsOf(s))
		}
	}
	return out
}

func invalidField(key, reason string) error {
	return status.Errorf(codes.InvalidArgument, "invalid %s: %s", key, reason)
}

// ToStruct renders v through its JSON form, so json tags name the fields.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a response struct into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
