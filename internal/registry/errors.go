package registry

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMediaKind = errors.New("unsupported media kind")
	ErrFileTooLarge         = errors.New("file too large")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrAlreadyProcessing    = errors.New("asset is already processing")
	ErrMediaReleased        = errors.New("media has been released")
	ErrInvalidTab           = errors.New("invalid panel tab")
)

// FileTooLargeError reports the configured ceiling alongside the rejected size.
type FileTooLargeError struct {
	Limit int64
	Size  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %d bytes exceeds the %d MB limit", e.Size, e.Limit/(1<<20))
}

func (e *FileTooLargeError) Is(target error) bool {
	return target == ErrFileTooLarge
}
