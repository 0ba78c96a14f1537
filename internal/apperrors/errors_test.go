package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("failed to load portfolio: %w", Wrap(ErrPortfolioNotFound, cause))

	assert.True(t, errors.Is(err, ErrPortfolioNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrAlertNotFound))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := WithMessage(ErrAlertNotFound, "alert not found: a-1")

	assert.Equal(t, "alert not found: a-1", err.Error())
	assert.True(t, errors.Is(err, ErrAlertNotFound))
}

func TestStatusCodeDefaults(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, StatusCode(ErrUpstreamUnavailable))
	assert.False(t, IsNotFound(ErrUpstreamUnavailable))
}
