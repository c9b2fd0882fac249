package dynsys

import "errors"

// ErrEmptyAttractor indicates the dynamics were evaluated before an
// attractor was set.
var ErrEmptyAttractor = errors.New("dynsys: attractor is empty")
