package domain

import "errors"

// 业务层统一错误种类，transport 层负责映射成响应码
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidIdentity    = errors.New("identity verification failed")
	ErrForbidden          = errors.New("forbidden")
)
