package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, templateHandler *TemplateHandler) {
	group := server.Group("/api/v1/imports/users")
	group.POST("", importHandler.UploadFile)
	group.GET("/template", templateHandler.Download)
	group.GET("/:key", importHandler.Status)
	group.POST("/:key/start", importHandler.Start)
	group.POST("/:key/cancel", importHandler.Cancel)
	group.DELETE("/:key", importHandler.Reset)
}
