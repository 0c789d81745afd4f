package repository

import "errors"

// 対象の行がない
var ErrNotFound = errors.New("not found")
