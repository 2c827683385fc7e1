package native

import "fmt"

// ArgString returns the named string argument.
func (r Request) ArgString(name string) (string, error) {
	v, ok := r.Args[name]
	if !ok {
		return "", fmt.Errorf("%s: missing argument %q", r.Op, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %q is %T, want string", r.Op, name, v)
	}
	return s, nil
}

// ArgFloat returns the named numeric argument as a float64.
func (r Request) ArgFloat(name string) (float64, error) {
	v, ok := r.Args[name]
	if !ok {
		return 0, fmt.Errorf("%s: missing argument %q", r.Op, name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: argument %q is %T, want number", r.Op, name, v)
	}
}

// ArgInt returns the named numeric argument as an int. JSON transports
// deliver numbers as float64, which are accepted when integral.
func (r Request) ArgInt(name string) (int, error) {
	v, ok := r.Args[name]
	if !ok {
		return 0, fmt.Errorf("%s: missing argument %q", r.Op, name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: argument %q is not integral: %v", r.Op, name, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s: argument %q is %T, want integer", r.Op, name, v)
	}
}

// ArgBool returns the named boolean argument.
func (r Request) ArgBool(name string) (bool, error) {
	v, ok := r.Args[name]
	if !ok {
		return false, fmt.Errorf("%s: missing argument %q", r.Op, name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: argument %q is %T, want bool", r.Op, name, v)
	}
	return b, nil
}
