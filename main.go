package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/davidkych/cursus-backend/internal/blobstore"
	"github.com/davidkych/cursus-backend/internal/config"
	"github.com/davidkych/cursus-backend/internal/database"
	"github.com/davidkych/cursus-backend/internal/handlers"
	"github.com/davidkych/cursus-backend/internal/jsonstore"
	"github.com/davidkych/cursus-backend/internal/lcsd"
	"github.com/davidkych/cursus-backend/internal/middleware"
	"github.com/davidkych/cursus-backend/internal/scheduler"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Println("user index warning:", err)
	}
	if err := database.EnsureScheduleIndexes(db); err != nil {
		log.Println("schedule index warning:", err)
	}
	if err := database.EnsureDocumentIndexes(db); err != nil {
		log.Println("document index warning:", err)
	}

	docs := jsonstore.New(db)

	avatars, err := blobstore.New(context.Background(), blobstore.Config{
		Endpoint:  config.AppEnv.AvatarEndpoint,
		Region:    config.AppEnv.AvatarRegion,
		AccessKey: config.AppEnv.AvatarAccessKey,
		SecretKey: config.AppEnv.AvatarSecretKey,
		Bucket:    config.AppEnv.AvatarBucket,
	})
	if err != nil {
		log.Fatal("blob store init failed:", err)
	}

	sched := scheduler.New(
		scheduler.NewMongoStore(db),
		scheduler.NewPromptRunner(docs),
	)
	if err := sched.Start(context.Background()); err != nil {
		log.Fatal("scheduler reload failed:", err)
	}

	lcsdClient := lcsd.NewClient(config.AppEnv.LCSDBaseURL, config.AppEnv.LCSDDelay)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppEnv.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: config.AppEnv.FrontendOrigin != "*",
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "cursus-backend", "status": "running"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/json", handlers.UploadJSON(docs))
	r.GET("/api/json", handlers.DownloadJSON(docs))
	r.GET("/api/json/download", handlers.DownloadJSONFile(docs))
	r.GET("/api/json/delete", handlers.DeleteJSON(docs))
	r.POST("/api/log", handlers.AppendLog(docs))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handlers.Register(db))
		auth.POST("/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

		authed := auth.Group("")
		authed.Use(middleware.RequireUser(config.AppEnv.JWTSecret))
		{
			authed.GET("/me", handlers.GetMe(db, avatars, config.AppEnv.AvatarURLTTL))
			authed.POST("/change-password", handlers.ChangePassword(db))
			authed.POST("/change-email", handlers.ChangeEmail(db))
			authed.POST("/avatar", handlers.UploadAvatar(db, avatars))
			authed.POST("/avatar/select", handlers.SelectAvatar(db))

			authed.POST("/codes/generate", handlers.GenerateCode(db))
			authed.POST("/codes/redeem", handlers.RedeemCode(db))

			authed.GET("/admin/users", handlers.ListUsers(db))
			authed.POST("/admin/impersonate", handlers.Impersonate(db, &config.AppEnv))
		}
	}

	r.POST("/api/schedule", handlers.CreateSchedule(sched))
	r.GET("/api/schedule", handlers.ListSchedules(sched))
	r.GET("/api/schedule/:id", handlers.GetScheduleStatus(sched))
	r.DELETE("/api/schedule/:id", handlers.TerminateSchedule(sched))
	r.POST("/api/schedule/wipe", handlers.WipeSchedules(sched))

	r.POST("/api/lcsd/probe", handlers.ProbeLCSD(lcsdClient, docs))
	r.GET("/api/lcsd/probe", handlers.ProbeLCSD(lcsdClient, docs))
	r.POST("/api/lcsd/master", handlers.BuildMaster(lcsdClient, docs))
	r.GET("/api/lcsd/master", handlers.BuildMaster(lcsdClient, docs))
	r.GET("/api/lcsd/timetable", handlers.BuildLCSDTimetable(docs))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("server shutdown:", err)
	}
	sched.Stop()
	if err := client.Disconnect(ctx); err != nil {
		log.Println("mongo disconnect:", err)
	}
}
