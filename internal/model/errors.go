package model

import "errors"

var (
	ErrReturnTypeNotFound      = errors.New("return type not found")
	ErrMockTargetNotResolvable = errors.New("mock target not resolvable")
	ErrMockFinalClass          = errors.New("final class cannot be mocked, use interface instead")
	ErrMockNotExists           = errors.New("mock does not exist")
	ErrInvalidClassName        = errors.New("invalid class name")
	ErrFileNotExists           = errors.New("file does not exist")
	ErrCodeExtract             = errors.New("code can not be extracted")
	ErrInvalidMockBackend      = errors.New("invalid mock backend")
	ErrNotADirectory           = errors.New("not a directory")
	ErrMissingTrait            = errors.New("trait does not exist")
)
