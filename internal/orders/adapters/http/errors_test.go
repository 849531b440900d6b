package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dejobratic/foodorder/internal/orders/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: phone is required", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: order o1", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: already paid", domain.ErrConflict), http.StatusConflict},
		{domain.ErrInvalidSignature, http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, errors.New("timeout")), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrCouponExhausted), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
