package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Ticker string `json:"ticker" validate:"required,max=4"`
	Start  string `json:"start" default:"2015-01-01" validate:"datetime=2006-01-02"`
	Depth  int    `json:"depth" validate:"omitempty,gte=1,lte=3"`
}

func bind(t *testing.T, body string, req interface{}) []ValidationError {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(r, httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	req := &sampleRequest{}
	require.Nil(t, bind(t, `{"ticker":"SPY"}`, req))
	assert.Equal(t, "2015-01-01", req.Start)
}

func TestReadAndValidateRequestFieldErrors(t *testing.T) {
	verrs := bind(t, `{"start":"01/02/2020","depth":5}`, &sampleRequest{})
	require.Len(t, verrs, 3)

	byField := map[string]ValidationError{}
	for _, ve := range verrs {
		byField[ve.Field] = ve
	}
	assert.Equal(t, "ERR_REQUIRED", byField["ticker"].Code)
	assert.Equal(t, "ticker is required", byField["ticker"].Message)
	assert.Equal(t, "ERR_DATETIME", byField["start"].Code)
	assert.Equal(t, "start must be a date formatted as 2006-01-02", byField["start"].Message)
	assert.Equal(t, "depth must be at most 3", byField["depth"].Message)
	assert.Equal(t, map[string]string{"lte": "3"}, byField["depth"].Params)
}

func TestReadAndValidateRequestMalformedBody(t *testing.T) {
	verrs := bind(t, `{"ticker":`, &sampleRequest{})
	require.Len(t, verrs, 1)
	assert.Equal(t, "ERR_MALFORMED", verrs[0].Code)
}

func TestNewAppErrorCode(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	e := NewAppError(http.StatusBadGateway, "", "upstream failed").WithError(cause)

	assert.Equal(t, "ERR_BAD_GATEWAY", e.Code)
	assert.Equal(t, "upstream failed: dial tcp: refused", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "ERR_INTERNAL_SERVER_ERROR", NewAppError(http.StatusInternalServerError, "", "x").Code)
	assert.Equal(t, "ERR_CUSTOM", NewAppError(http.StatusTeapot, "ERR_CUSTOM", "x").Code)
}
