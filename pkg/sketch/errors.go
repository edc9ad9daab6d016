package sketch

import "errors"

// Precondition failures. Operations wrap these with context; test with
// errors.Is.
var (
	ErrNilPoint        = errors.New("nil point")
	ErrNilStroke       = errors.New("nil stroke")
	ErrNilShape        = errors.New("nil shape")
	ErrNilSegmentation = errors.New("nil segmentation")
	ErrNilAlias        = errors.New("nil alias")
	ErrNilList         = errors.New("nil list")
	ErrEmptyName       = errors.New("empty name")
	ErrNilID           = errors.New("nil id")
	ErrIndexOutOfRange = errors.New("index out of range")
)
