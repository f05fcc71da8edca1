package api

import (
	"github.com/gin-gonic/gin"

	"user-api/internal/auth"
)

func SetupRouter(d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		RequestID(),
		Recovery(d.Log),
		RequestLogger(d.Log),
		SecurityHeaders(),
		CORS(d.CORSOrigins),
	)

	r.GET("/", rootHandler)
	r.GET("/health", healthHandler(d))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", RegisterHandler(d))
		authGroup.POST("/login", LoginHandler(d))

		users := api.Group("/users", auth.Middleware(d.Tokens, d.Log))
		users.GET("", ListUsersHandler(d))
		users.POST("/avatar", UploadAvatarHandler(d))
		users.GET("/:id", GetUserHandler(d))
		users.PUT("/:id", auth.RequireOwner("id", "You can only edit your own profile", d.Log), UpdateUserHandler(d))
		users.DELETE("/:id", auth.RequireOwner("id", "You can only delete your own account", d.Log), DeleteUserHandler(d))
	}
	return r
}
