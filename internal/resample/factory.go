package resample

import (
	"errors"
	"fmt"
	"log/slog"
)

// BackendFactory creates conversion backends based on configuration
type BackendFactory interface {
	CreateBackend(backendType, quality string) (Backend, error)
	GetSupportedBackends() []string
	IsValidBackendType(backendType string) bool
}

// Factory errors
var (
	ErrInvalidBackendType = errors.New("invalid backend type")
)

// DefaultBackendFactory implements BackendFactory
type DefaultBackendFactory struct{}

// NewBackendFactory creates a new DefaultBackendFactory
func NewBackendFactory() *DefaultBackendFactory {
	return &DefaultBackendFactory{}
}

// CreateBackend creates a conversion backend of the specified type.
// An empty type defaults to auto selection.
func (f *DefaultBackendFactory) CreateBackend(backendType, quality string) (Backend, error) {
	if backendType == "" {
		backendType = "auto"
	}

	slog.Debug("creating conversion backend", "type", backendType, "quality", quality)

	switch backendType {
	case "auto", "polyphase":
		// The polyphase backend carries real filter history and has no
		// channel count ceiling, so auto always prefers it.
		return NewPolyphaseBackend(quality), nil
	case "beep":
		return NewBeepBackend(beepQualityIndex(quality)), nil
	default:
		slog.Error("invalid backend type requested", "type", backendType)
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}

// GetSupportedBackends returns all supported backend types
func (f *DefaultBackendFactory) GetSupportedBackends() []string {
	return []string{"auto", "polyphase", "beep"}
}

// IsValidBackendType checks whether a backend type is supported.
// Empty string is valid and defaults to auto.
func (f *DefaultBackendFactory) IsValidBackendType(backendType string) bool {
	if backendType == "" {
		return true
	}
	for _, supported := range f.GetSupportedBackends() {
		if backendType == supported {
			return true
		}
	}
	return false
}

// beepQualityIndex maps the shared quality names onto beep's 1..64 index
func beepQualityIndex(quality string) int {
	switch quality {
	case "quick":
		return 1
	case "low":
		return 2
	case "medium":
		return 3
	case "high":
		return 4
	case "veryhigh":
		return 6
	default:
		return 3
	}
}
