package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *AuthHandler
	Maps     *MapHandler
	Ratings  *RatingHandler
	Comments *CommentHandler
}

// Middleware lets the caller supply authentication and write throttling.
// Auth is required; a nil RateLimit disables throttling.
type Middleware struct {
	Auth      gin.HandlerFunc
	RateLimit gin.HandlerFunc
	Global    []gin.HandlerFunc
}

// NewRouter mounts every API route under /api. Reads are public; writes
// require a token and pass the rate limiter.
func NewRouter(h Handlers, mw Middleware) *gin.Engine {
	if mw.RateLimit == nil {
		mw.RateLimit = func(c *gin.Context) { c.Next() }
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.Global...)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", mw.RateLimit, h.Auth.Register)
	authGroup.POST("/login", mw.RateLimit, h.Auth.Login)
	authGroup.GET("/me", mw.Auth, h.Auth.Me)
	authGroup.DELETE("/me", mw.Auth, mw.RateLimit, h.Auth.DeleteMe)

	maps := api.Group("/maps")
	h.Maps.RegisterRoutes(maps)
	h.Ratings.RegisterRoutes(maps)
	h.Comments.RegisterRoutes(maps)

	protected := api.Group("/maps", mw.Auth, mw.RateLimit)
	h.Maps.RegisterProtectedRoutes(protected)
	h.Ratings.RegisterProtectedRoutes(protected)
	h.Comments.RegisterProtectedRoutes(protected)

	return r
}
