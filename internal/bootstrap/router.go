package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/garayn/garayn-backend/internal/api/http"
	"github.com/garayn/garayn-backend/internal/auth"
	authhttp "github.com/garayn/garayn-backend/internal/auth/http"
	"github.com/garayn/garayn-backend/internal/contact"
	projecthttp "github.com/garayn/garayn-backend/internal/projects/http"
	"github.com/garayn/garayn-backend/internal/ratelimit"
	"github.com/garayn/garayn-backend/internal/store"
	"github.com/garayn/garayn-backend/internal/uploads"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	Store   store.Store
	Guard   *auth.Guard
	Limiter *ratelimit.Limiter

	Auth     *authhttp.Handler
	Projects *projecthttp.Handler
	Uploads  *uploads.Handler
	Contact  *contact.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.CORSOrigins) == 1 && dep.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = dep.CORSOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")

	dep.Auth.Register(api.Group("/auth"))
	dep.Projects.RegisterAdmin(api.Group("/admin"), dep.Guard, dep.Limiter)
	dep.Projects.RegisterPublic(api.Group("/projects"), dep.Guard)
	dep.Uploads.Register(api, dep.Guard)
	dep.Contact.Register(api)

	return r
}
