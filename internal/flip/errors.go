package flip

import (
	"fmt"

	"github.com/born-ml/tileflip/internal/tensor"
)

// Flip setup errors. Both wrap tensor.ErrPrecondition.
var (
	ErrInvalidAxis = fmt.Errorf("%w: invalid flip axis", tensor.ErrPrecondition)
	ErrBufferSize  = fmt.Errorf("%w: buffer size does not match shape", tensor.ErrPrecondition)
)
