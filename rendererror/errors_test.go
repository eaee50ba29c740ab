package rendererror

import (
	"errors"
	"testing"
)

func TestNotFoundMatchesBothSentinels(t *testing.T) {
	err := NotFound(ErrMeshNotFound)

	if !errors.Is(err, ErrMeshNotFound) {
		t.Error("expected errors.Is to match the specific sentinel")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match the generic ErrNotFound sentinel")
	}
	if !errors.Is(err, ErrTextureNotFound) {
		return
	}
	t.Error("expected errors.Is not to match an unrelated sentinel")
}

func TestNotFoundMessageIsTheSpecificError(t *testing.T) {
	err := NotFound(ErrSamplerNotFound)
	if err.Error() != ErrSamplerNotFound.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrSamplerNotFound.Error())
	}
}

func TestNotFoundDistinguishesUnrelatedSentinels(t *testing.T) {
	err := NotFound(ErrPipelineNotFound)
	if errors.Is(err, ErrShaderNotFound) {
		t.Error("expected a pipeline not-found error not to match ErrShaderNotFound")
	}
}
