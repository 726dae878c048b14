package resample

import (
	"errors"
	"testing"
)

func TestFactoryCreatesBackends(t *testing.T) {
	factory := NewBackendFactory()

	tests := []struct {
		backendType string
		wantName    string
	}{
		{"", "polyphase"},
		{"auto", "polyphase"},
		{"polyphase", "polyphase"},
		{"beep", "beep"},
	}

	for _, tt := range tests {
		backend, err := factory.CreateBackend(tt.backendType, "medium")
		if err != nil {
			t.Errorf("CreateBackend(%q) failed: %v", tt.backendType, err)
			continue
		}
		if backend.Name() != tt.wantName {
			t.Errorf("CreateBackend(%q).Name() = %q, want %q", tt.backendType, backend.Name(), tt.wantName)
		}
	}
}

func TestFactoryRejectsUnknownBackend(t *testing.T) {
	factory := NewBackendFactory()
	_, err := factory.CreateBackend("soxr", "high")
	if !errors.Is(err, ErrInvalidBackendType) {
		t.Errorf("expected ErrInvalidBackendType, got %v", err)
	}
}

func TestFactoryBackendValidation(t *testing.T) {
	factory := NewBackendFactory()

	for _, valid := range append(factory.GetSupportedBackends(), "") {
		if !factory.IsValidBackendType(valid) {
			t.Errorf("IsValidBackendType(%q) = false, want true", valid)
		}
	}
	if factory.IsValidBackendType("bogus") {
		t.Error("IsValidBackendType(\"bogus\") = true, want false")
	}
}

func TestFactoryInterface(t *testing.T) {
	var _ BackendFactory = NewBackendFactory()
}
