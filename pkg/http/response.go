package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope wraps non-report answers: validation failures, errors and
// rejections.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes data inside an Envelope.
func Respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Status: status, Message: http.StatusText(status), Data: data})
}

// Invalid answers 400 with the validation failures.
func Invalid(c echo.Context, verrs []ValidationError) error {
	return Respond(c, http.StatusBadRequest, verrs)
}

func RateLimited(c echo.Context) error {
	return Respond(c, http.StatusTooManyRequests, "rate limit exceeded")
}

// Fail answers with the status of an *AppError in err's chain, or 500.
func Fail(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Respond(c, appErr.Status, []*AppError{appErr})
	}
	return Respond(c, http.StatusInternalServerError, "internal error")
}
