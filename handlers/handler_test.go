package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-marketplace-api/config"
	"food-marketplace-api/logger"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatus(t *testing.T) {
	h := New(config.Default(), Services{}, nil, logger.Discard())
	tests := []struct {
		kind services.Kind
		want int
	}{
		{services.KindNotFound, http.StatusNotFound},
		{services.KindInvalid, http.StatusBadRequest},
		{services.KindConflict, http.StatusConflict},
		{services.KindUnavailable, http.StatusServiceUnavailable},
		{services.KindUnauthorized, http.StatusUnauthorized},
		{services.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.respondError(c, &services.Error{Kind: tt.kind, Op: "test", Msg: "boom"})
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.respondError(c, errors.New("database is on fire"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped errors, got %d", w.Code)
	}
}

func TestParseID(t *testing.T) {
	for _, tt := range []struct {
		raw string
		ok  bool
	}{
		{"12", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tt.raw}}
		id, ok := parseID(c, "id")
		if ok != tt.ok {
			t.Fatalf("parseID(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("parseID(%q) should write 400, got %d", tt.raw, w.Code)
		}
		if ok && id != 12 {
			t.Fatalf("expected id 12, got %d", id)
		}
	}
}

func TestPincodePattern(t *testing.T) {
	for pin, want := range map[string]bool{
		"560001":  true,
		"060001":  false,
		"56001":   false,
		"5600011": false,
		"56a001":  false,
	} {
		if got := pincodePattern.MatchString(pin); got != want {
			t.Errorf("pincode %q: got %v, want %v", pin, got, want)
		}
	}
}
