package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the response contract shared by every endpoint: failures carry
// error=true/success=false, successes the inverse.
type Envelope struct {
	Message string      `json:"message"`
	Error   bool        `json:"error"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Envelope{Message: message, Error: false, Success: true, Data: data})
}

func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Message: message, Error: true, Success: false})
}

// UserID reads the id the auth middleware resolved for this request.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
