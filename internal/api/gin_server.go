package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"codefusion/internal/services"
	"codefusion/internal/sse"
	"codefusion/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// allowedExtensions lists the upload suffixes accepted by /convert.
var allowedExtensions = []string{".c", ".cpp", ".java", ".js", ".py", ".txt"}

// converterLanguages populates the language pickers on the converter page.
var converterLanguages = []string{"c", "cpp", "java", "javascript", "python"}

type GinServer struct {
	router   *gin.Engine
	logger   *zap.Logger
	config   types.ServerConfig
	services *services.Services
	sseHub   *sse.Hub
	// ctx bounds background review jobs and is cancelled by Close
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewGinServer(logger *zap.Logger, cfg types.ServerConfig, services *services.Services) *GinServer {
	router := gin.New()
	router.Use(RequestID(), GinLogger(logger), Recovery(logger), CORS(cfg.CORSAllowedOrigins))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	ctx, cancel := context.WithCancel(context.Background())
	sseHub := sse.NewHub()
	go sseHub.Run(ctx)

	server := &GinServer{
		router:   router,
		logger:   logger,
		config:   cfg,
		services: services,
		sseHub:   sseHub,
		ctx:      ctx,
		cancel:   cancel,
	}
	server.SetupRoutes()
	return server
}

// GetRouter returns the Gin router
func (s *GinServer) GetRouter() *gin.Engine {
	return s.router
}

// Close stops the hub sweeper and cancels in-flight review jobs.
func (s *GinServer) Close() {
	s.cancel()
}

func (s *GinServer) SetupRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	s.router.GET("/health", s.HealthCheck)

	limit := LimitBody(s.config.MaxUploadBytes)

	s.router.GET("/code-converter", s.ConverterPage)
	s.router.POST("/convert", limit, s.ConvertCode)

	if !s.config.HubEnabled {
		s.router.GET("/", s.ConverterPage)
		return
	}

	s.router.GET("/", s.HubPage)
	s.router.GET("/ai-review", s.ReviewPage)
	s.router.POST("/", limit, s.ReviewCode)
	s.router.POST("/ai-review/stream", limit, s.StartReviewStream)
	s.router.GET("/ai-review/stream/:id", s.StreamHandler)
}

// HealthCheck reports that the server is up
func (s *GinServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "codefusion",
	})
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

func (s *GinServer) HubPage(c *gin.Context) {
	noCache(c)
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "CodeFusion"})
}

func (s *GinServer) ReviewPage(c *gin.Context) {
	noCache(c)
	c.HTML(http.StatusOK, "ai_review_index.html", gin.H{"Title": "AI Code Review"})
}

func (s *GinServer) ConverterPage(c *gin.Context) {
	noCache(c)
	c.HTML(http.StatusOK, "code_converter_index.html", gin.H{
		"Title":     "Code Converter",
		"Languages": converterLanguages,
		"Accept":    strings.Join(allowedExtensions, ","),
	})
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: msg})
}
