package response

import "github.com/gin-gonic/gin"

// ErrorBody is the shape of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail})
}
