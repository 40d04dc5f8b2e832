package native

import "errors"

var (
	ErrInvalidFunction = errors.New("invalid native function")
	ErrArgumentCount   = errors.New("wrong number of arguments")
	ErrArgumentType    = errors.New("argument type mismatch")
)
