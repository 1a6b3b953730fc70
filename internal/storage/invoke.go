package storage

import (
	"fmt"
	"math"
)

// TypeError reports a call that violates the Storage method contract
type TypeError struct {
	Method  string
	Message string
}

// Error formats the message the platform raises for the failed call
func (e *TypeError) Error() string {
	return fmt.Sprintf("Failed to execute '%s' on 'Storage': %s", e.Method, e.Message)
}

// arity is the number of required arguments per method
var arity = map[string]int{
	"getItem":    1,
	"setItem":    2,
	"removeItem": 1,
	"clear":      0,
	"key":        1,
	"length":     0,
}

// Invoke calls a Storage method by its platform name with untyped arguments,
// rejecting missing arguments and arguments of the wrong type instead of
// coercing them. Absent results are returned as nil; "length" returns an int.
func Invoke(s *Storage, method string, args ...interface{}) (interface{}, error) {
	required, known := arity[method]
	if !known {
		return nil, &TypeError{Method: method, Message: "no such method."}
	}
	if len(args) < required {
		return nil, arityError(method, required, len(args))
	}

	switch method {
	case "getItem":
		key, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		if value, ok := s.GetItem(key); ok {
			return value, nil
		}
		return nil, nil

	case "setItem":
		key, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		value, err := stringArg(method, args, 1)
		if err != nil {
			return nil, err
		}
		s.SetItem(key, value)
		return nil, nil

	case "removeItem":
		key, err := stringArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		s.RemoveItem(key)
		return nil, nil

	case "clear":
		s.Clear()
		return nil, nil

	case "key":
		index, ok, err := indexArg(method, args, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if key, found := s.Key(index); found {
			return key, nil
		}
		return nil, nil

	default: // length
		return s.Length(), nil
	}
}

func arityError(method string, required, present int) *TypeError {
	noun := "arguments"
	if required == 1 {
		noun = "argument"
	}
	return &TypeError{
		Method:  method,
		Message: fmt.Sprintf("%d %s required, but only %d present.", required, noun, present),
	}
}

func stringArg(method string, args []interface{}, pos int) (string, error) {
	s, ok := args[pos].(string)
	if !ok {
		return "", &TypeError{
			Method:  method,
			Message: fmt.Sprintf("parameter %d is not of type 'string'.", pos+1),
		}
	}
	return s, nil
}

// indexArg converts a numeric argument to an index. ok is false for numbers
// that cannot address an entry (fractional, negative, NaN, too large).
func indexArg(method string, args []interface{}, pos int) (index int, ok bool, err error) {
	var f float64
	switch v := args[pos].(type) {
	case int:
		return v, v >= 0, nil
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return 0, false, &TypeError{
			Method:  method,
			Message: fmt.Sprintf("parameter %d is not of type 'number'.", pos+1),
		}
	}

	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false, nil
	}
	return int(f), true, nil
}
