package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	"github.com/habitforge/bulk-user-import/internal/infrastructure/repository"
	httpecho "github.com/habitforge/bulk-user-import/internal/interfaces/http/echo"
)

func NewHTTPServer(db *gorm.DB, pool *pgxpool.Pool, executor *app.Executor) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))

	sessionStore := repository.NewSessionStore(pool)
	cohortRepo := repository.NewCohortRepository(db)

	prepareImport := app.NewPrepareImport(sessionStore, cohortRepo)
	getStatus := app.NewGetImportStatus(sessionStore, executor)
	resetImport := app.NewResetImport(sessionStore, executor)
	buildTemplate := app.NewBuildTemplate(cohortRepo)

	importHandler := httpecho.NewImportHandler(prepareImport, getStatus, resetImport, executor)
	templateHandler := httpecho.NewTemplateHandler(buildTemplate)

	httpecho.RegisterRoutes(server, importHandler, templateHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
