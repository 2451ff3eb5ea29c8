package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/gov/engine"
	"github.com/vortex-market/vortex-dao/src/govapi/config"
)

func New(cfg config.Config, eng *engine.Engine, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, eng, db, rdb)
	return g
}

func attachRoutes(r *gin.Engine, cfg config.Config, eng *engine.Engine, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := NewAuth(rdb, []byte(cfg.JWTSecret), db)
	proposals := NewProposals(eng)
	votes := NewVotes(eng)
	finalizer := NewFinalizer(eng)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", auth.Challenge)
		v1.POST("/auth/verify", auth.Verify)

		v1.GET("/proposals", proposals.List)
		v1.GET("/proposals/:id", proposals.Get)

		secured := v1.Group("")
		secured.Use(JWT([]byte(cfg.JWTSecret)))
		{
			secured.POST("/proposals", proposals.Create)
			secured.POST("/proposals/:id/votes", votes.Cast)
			secured.POST("/finalize", RequireAdmin(), finalizer.Scan)
		}
	}
}
