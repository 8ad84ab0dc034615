package feather2d

import "errors"

var (
	ErrNilBody           = errors.New("nil body")
	ErrBodyAlreadyAdded  = errors.New("body already belongs to a world")
	ErrBodyNotInWorld    = errors.New("body does not belong to this world")
	ErrNilJoint          = errors.New("nil joint")
	ErrJointAlreadyAdded = errors.New("joint already added")
)
