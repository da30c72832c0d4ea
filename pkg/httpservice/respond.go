package httpservice

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yourorg/go-blobstore-kit/pkg/logging"
	"github.com/yourorg/go-blobstore-kit/pkg/storeerr"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// GetLogger retrieves the contextual logger from the request.
func GetLogger(c *gin.Context) logging.Logger {
	return logging.FromContext(c.Request.Context())
}

// ValidateJSON binds and validates a JSON request body.
func ValidateJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON: " + err.Error(),
			"code":  "InvalidInput",
		})
		return false
	}

	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Validation failed: " + err.Error(),
			"code":  "InvalidInput",
		})
		return false
	}

	return true
}

// ValidateQuery binds and validates query parameters.
func ValidateQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters: " + err.Error(),
			"code":  "InvalidInput",
		})
		return false
	}

	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Validation failed: " + err.Error(),
			"code":  "InvalidInput",
		})
		return false
	}

	return true
}

// HandleError maps a storage error to the HTTP response a caller should see.
func HandleError(c *gin.Context, err error) {
	status := storeerr.HTTPStatus(err)
	code := "InternalError"
	message := "Internal server error"

	var se *storeerr.StorageError
	if errors.As(err, &se) {
		if se.Code != "" {
			code = string(se.Code)
		}
		message = se.Message
		if message == "" {
			message = http.StatusText(status)
		}
	} else if status < http.StatusInternalServerError {
		message = err.Error()
	}

	c.JSON(status, gin.H{
		"error": message,
		"code":  code,
	})
	c.Abort()
}

// SuccessResponse sends a success response.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
	})
}

// CreatedResponse sends a created response.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"data": data,
	})
}
