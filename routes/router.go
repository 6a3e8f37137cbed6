package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/achievehub/achievehub/config"
	"github.com/achievehub/achievehub/controllers"
	"github.com/achievehub/achievehub/middleware"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

// Controllers bundles the handler sets the router wires up.
type Controllers struct {
	Auth     *controllers.AuthController
	Posts    *controllers.PostController
	Comments *controllers.CommentController
	Users    *controllers.UserController
	Stats    *controllers.StatsController
	Uploads  *controllers.UploadController
}

// NewControllers builds the full handler set against a connected store and
// media uploader.
func NewControllers(s *store.Store, media controllers.MediaUploader, verifier controllers.TokenVerifier) Controllers {
	return Controllers{
		Auth:     controllers.NewAuthController(s, verifier),
		Posts:    controllers.NewPostController(s),
		Comments: controllers.NewCommentController(s, s),
		Users:    controllers.NewUserController(s),
		Stats:    controllers.NewStatsController(s),
		Uploads:  controllers.NewUploadController(media),
	}
}

// SetupRouter assembles the gin engine: logging and recovery, CORS, the API
// surface, and the SPA fallback for the bundled frontend.
func SetupRouter(s *store.Store, c Controllers) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(utils.GinLogger(), utils.GinRecovery())
	router.Use(corsMiddleware(cfg))

	router.GET("/health", func(ctx *gin.Context) {
		if err := s.Ping(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware())
	{
		auth.POST("/google", c.Auth.GoogleLogin)
		auth.POST("/admin-login", c.Auth.AdminLogin)
		auth.GET("/google/login", c.Auth.OAuthRedirect)
		auth.GET("/google/callback", c.Auth.OAuthCallback)
		auth.POST("/logout", middleware.AuthRequired(), c.Auth.Logout)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", c.Posts.List)
		posts.GET("/my-posts", middleware.AuthRequired(), c.Posts.ListMine)
		posts.GET("/pending", middleware.AuthRequired(), middleware.AdminRequired(), c.Posts.ListPending)
		posts.GET("/:id", c.Posts.Get)
		posts.POST("", middleware.AuthRequired(), c.Posts.Create)
		posts.PUT("/edit/:id", middleware.AuthRequired(), c.Posts.Update)
		posts.DELETE("/:id", middleware.AuthRequired(), c.Posts.Delete)
		posts.PUT("/:id/like", middleware.AuthRequired(), c.Posts.Like)
		posts.PUT("/:id/unlike", middleware.AuthRequired(), c.Posts.Unlike)
		posts.PUT("/approve/:id", middleware.AuthRequired(), middleware.AdminRequired(), c.Posts.Approve)
		posts.PUT("/reject/:id", middleware.AuthRequired(), middleware.AdminRequired(), c.Posts.Reject)
		posts.POST("/bulk-delete", middleware.AuthRequired(), middleware.AdminRequired(), c.Posts.BulkDelete)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:postId", c.Comments.List)
		comments.POST("", middleware.AuthRequired(), c.Comments.Create)
		comments.PUT("/:id", middleware.AuthRequired(), c.Comments.Update)
		comments.DELETE("/:id", middleware.AuthRequired(), c.Comments.Delete)
	}

	users := api.Group("/users")
	{
		users.GET("", middleware.AuthRequired(), middleware.AdminRequired(), c.Users.ListStudents)
		users.GET("/:id", middleware.AuthRequired(), c.Users.Get)
		users.PUT("/:id", middleware.AuthRequired(), c.Users.Update)
		users.DELETE("/:id", middleware.AuthRequired(), c.Users.Delete)
	}

	stats := api.Group("/stats")
	stats.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		stats.GET("/users", c.Stats.Users)
		stats.GET("/posts", c.Stats.Posts)
		stats.GET("/monthly-posts", c.Stats.MonthlyPosts)
	}

	api.POST("/upload", middleware.AuthRequired(), c.Uploads.Image)
	api.POST("/upload-video", middleware.AuthRequired(), c.Uploads.Video)

	registerStatic(router, cfg.StaticDir)

	return router
}

func corsMiddleware(cfg config.AppConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(corsConfig)
}

// registerStatic serves the bundled frontend. Unknown non-API paths fall back
// to index.html so client-side routing works; unknown API paths stay 404 JSON.
func registerStatic(router *gin.Engine, staticDir string) {
	router.Static("/static", filepath.Join(staticDir, "static"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

	router.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
			return
		}
		ctx.File(filepath.Join(staticDir, "index.html"))
	})
}
