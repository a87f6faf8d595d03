package recorder

import "errors"

var errBufferFull = errors.New("audit buffer full")
