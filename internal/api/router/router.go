package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-converter/internal/api/handlers/menu"
	"github.com/aliskhannn/image-converter/internal/api/handlers/settings"
	"github.com/aliskhannn/image-converter/internal/api/middleware"
)

// Setup registers the menu and settings routes.
func Setup(mh *menu.Handler, sh *settings.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware())
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.GET("/menu", mh.List)          // localized menu entries
	api.POST("/menu/clicks", mh.Click) // context-menu click on an image

	api.GET("/settings", sh.Get)           // current settings
	api.PUT("/settings", sh.Save)          // save settings
	api.GET("/settings/status", sh.Status) // transient save status

	return r
}
