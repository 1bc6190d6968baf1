package decode_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/docbridge/pkg/decode"
)

type notice struct {
	Status string `json:"status"`
	Notice string `json:"notice"`
}

func TestFromMap(t *testing.T) {
	got, err := decode.FromMap[notice](map[string]any{"status": "ok", "notice": "done"})
	if err != nil {
		t.Fatalf("FromMap() failed: %v", err)
	}
	if got.Status != "ok" || got.Notice != "done" {
		t.Errorf("FromMap() = %+v", got)
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		wantOK bool
	}{
		{"map", map[string]any{"status": "partial"}, true},
		{"nil", nil, false},
		{"string", "ok", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := decode.FromAny[notice](tt.value)
			if err != nil {
				t.Fatalf("FromAny() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	got, err := decode.JSON[notice](strings.NewReader(`{"status":"listed"}`), 1024)
	if err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}
	if got.Status != "listed" {
		t.Errorf("Status = %q, want listed", got.Status)
	}

	if _, err := decode.JSON[notice](strings.NewReader(`{"status":"listed"}`), 4); !errors.Is(err, decode.ErrBodyTooLarge) {
		t.Errorf("JSON() error = %v, want ErrBodyTooLarge", err)
	}

	if _, err := decode.JSON[notice](strings.NewReader(`{`), 1024); err == nil {
		t.Error("JSON() succeeded on malformed input")
	}
}
