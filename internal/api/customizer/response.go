package customizer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/domain/layout"
)

func statusFor(code layout.Code) int {
	switch code {
	case layout.CodeUnauthorized:
		return http.StatusUnauthorized
	case layout.CodeNotFound:
		return http.StatusNotFound
	case layout.CodeLocked:
		return http.StatusForbidden
	case layout.CodeValidation:
		return http.StatusBadRequest
	case layout.CodeUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type localizer interface {
	Localize(lang string)
}

// respond writes res with the status of its error code, localizing the message.
func respond[T any](c *gin.Context, okStatus int, res customizer.Result[T]) {
	lang := customizer.LanguageFromHeader(c.GetHeader("Accept-Language"))
	if res.Success {
		if l, ok := any(res.Data).(localizer); ok {
			l.Localize(lang)
		}
		c.JSON(okStatus, res)
		return
	}
	res.Error.Message = customizer.Message(res.Error.Code, lang)
	c.JSON(statusFor(res.Error.Code), res)
}

func reject(c *gin.Context, code layout.Code) {
	respond(c, 0, customizer.Result[any]{Error: &customizer.ResultError{Code: code}})
}
