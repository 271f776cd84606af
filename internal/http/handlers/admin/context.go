package admin

import (
	handlershared "github.com/earnko/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

func parseID(c *gin.Context) (uint, bool) {
	return handlershared.ParseParamID(c, "id")
}
