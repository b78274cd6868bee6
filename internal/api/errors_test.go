package api

import (
	"net/http"
	"testing"

	"github.com/likekeeper/likekeeper/internal/capture"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind     capture.Kind
		expected int
	}{
		{capture.KindValidation, http.StatusUnprocessableEntity},
		{capture.KindDuplicate, http.StatusConflict},
		{capture.KindNotFound, http.StatusNotFound},
		{capture.KindInternal, http.StatusInternalServerError},
		{capture.Kind("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.expected {
			t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.expected)
		}
	}
}
