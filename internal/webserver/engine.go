package webserver

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/database"
	"github.com/mdouchement/securevision/internal/service"
	"github.com/mdouchement/securevision/internal/storage"
	middlewarepkg "github.com/mdouchement/securevision/internal/webserver/middleware"
)

// A Controller is an Iversion Of Control pattern used to init the server package.
type Controller struct {
	Version  string
	Logger   logger.Logger
	Database database.Client
	Storage  storage.Backend
	//
	Capturer  *service.Capturer
	Sealer    *service.Sealer
	Verifier  *service.Verifier
	Destroyer *service.Destroyer
	//
	Author string
	Token  string
}

// EchoEngine instantiates the wep server.
func EchoEngine(ctrl Controller) *echo.Echo {
	engine := echo.New()
	engine.HideBanner = true
	engine.Use(middleware.Recover())
	engine.Use(middleware.Gzip())
	engine.Use(middlewarepkg.Logger(ctrl.Logger))

	engine.HTTPErrorHandler = middlewarepkg.NewHTTPErrorHandler(ctrl.Logger)

	engine.Pre(middleware.Rewrite(map[string]string{
		"/": "/version",
	}))

	//
	//
	//

	router := engine.Group("")

	// Generic handlers
	//
	router.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"version": ctrl.Version,
			"storage": ctrl.Storage.Name(),
		})
	})

	api := router.Group("/v1", middlewarepkg.Authenticate(ctrl.Token))

	// Captures
	//
	capture := capture{
		logger:   ctrl.Logger,
		capturer: ctrl.Capturer,
	}
	api.PUT("/captures/:filename", capture.Upload)

	// Seal & verify
	//
	seal := seal{
		logger:   ctrl.Logger,
		db:       ctrl.Database,
		sealer:   ctrl.Sealer,
		verifier: ctrl.Verifier,
		author:   ctrl.Author,
	}
	api.POST("/seal", seal.Create)
	api.POST("/verify", seal.Verify)

	// Sealed items
	//
	item := item{
		logger:    ctrl.Logger,
		db:        ctrl.Database,
		verifier:  ctrl.Verifier,
		destroyer: ctrl.Destroyer,
	}
	api.GET("/items", item.List)
	api.GET("/items/:id", item.Show)
	api.GET("/items/:id/verification", item.Verification)
	api.DELETE("/items/:id", item.Delete)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":   true,
		".":  true,
		"/*": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}
