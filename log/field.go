package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a typed key/value pair attached to a log entry.
type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// A FieldType indicates how Value should be encoded.
type FieldType uint8

const (
	UnknownType FieldType = iota
	BoolType
	DurationType
	Float64Type
	IntType
	Uint64Type
	StringType
	StringsType
	ErrorType
)

func Any(key string, val any) Field {
	return Field{Key: key, Type: UnknownType, Value: val}
}

func Bool(key string, val bool) Field {
	return Field{Key: key, Type: BoolType, Value: val}
}

func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Type: DurationType, Value: val}
}

func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Value: val}
}

func Int(key string, val int) Field {
	return Field{Key: key, Type: IntType, Value: val}
}

func Uint64(key string, val uint64) Field {
	return Field{Key: key, Type: Uint64Type, Value: val}
}

func String(key string, val string) Field {
	return Field{Key: key, Type: StringType, Value: val}
}

func Strings(key string, val []string) Field {
	return Field{Key: key, Type: StringsType, Value: val}
}

func Error(val error) Field {
	return Field{Key: "error", Type: ErrorType, Value: val}
}

func toZapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zapFields = append(zapFields, toZapField(f))
	}
	return zapFields
}

func toZapField(f Field) zap.Field {
	switch f.Type {
	case BoolType:
		return zap.Bool(f.Key, f.Value.(bool))
	case DurationType:
		return zap.Duration(f.Key, f.Value.(time.Duration))
	case Float64Type:
		return zap.Float64(f.Key, f.Value.(float64))
	case IntType:
		return zap.Int(f.Key, f.Value.(int))
	case Uint64Type:
		return zap.Uint64(f.Key, f.Value.(uint64))
	case StringType:
		return zap.String(f.Key, f.Value.(string))
	case StringsType:
		return zap.Strings(f.Key, f.Value.([]string))
	case ErrorType:
		if err, ok := f.Value.(error); ok {
			return zap.NamedError(f.Key, err)
		}
		return zap.Skip()
	default:
		return zap.Any(f.Key, f.Value)
	}
}
