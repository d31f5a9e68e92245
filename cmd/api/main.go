package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"geoattend/internal/auth"
	"geoattend/internal/config"
	"geoattend/internal/httpmiddleware"
	"geoattend/internal/metrics"
	"geoattend/internal/queue"
	"geoattend/internal/report"
	"geoattend/internal/session"
	"geoattend/internal/storage"
	"geoattend/internal/store"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}

func newLogger(cfg config.App) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "geoattend-api").Logger()
}

func runHTTP(cfg config.App, logger zerolog.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.EventQueueKey)
	}
	events := queue.NewPublisher(q)

	sessionStore := store.NewSessionStore(db.Client)
	academicStore := store.NewAcademicStore(db.Client)
	userStore := store.NewUserStore(db.Client)
	reportStore := store.NewReportStore(db.Client, sessionStore)

	sessions := session.NewService(sessionStore, academicStore, userStore, events,
		cfg.MinSessionDuration, cfg.DefaultRadiusM, logger)

	aggregator := report.NewAggregator(report.RadiusPolicy(cfg.RadiusPolicy))
	reports := report.NewGenerator(reportStore, aggregator, events, logger)

	exports := report.NewExportService(reportStore, storage.NewLocal(cfg.ExportDir), events, logger)
	exports.Register("csv", report.CSVExporter{})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger, "/healthz", "/metrics"))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Dev-only token mint; real deployments front this service with an
	// identity provider issuing the same claims.
	if cfg.Env != "production" && cfg.Env != "prod" {
		r.POST("/v1/auth/token", func(c *gin.Context) {
			var req struct {
				Subject string `json:"subject" binding:"required"`
				Role    string `json:"role" binding:"required,oneof=lecturer admin"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tokens, err := auth.Issue(req.Subject, req.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{
				"access_token":  tokens.AccessToken,
				"refresh_token": tokens.RefreshToken,
				"expires_at":    tokens.AccessExp.Unix(),
			})
		})
	}

	v1 := r.Group("/v1", auth.RequireUser(cfg.JWTSigningKey, cfg.JWTIssuer))

	v1.POST("/sessions", func(c *gin.Context) {
		var cmd session.CreateSessionCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := sessions.CreateSession(c.Request.Context(), auth.ActorFrom(c), cmd)
		if err != nil {
			if errors.Is(err, session.ErrOverlappingSession) {
				metrics.OverlapRejections.Inc()
			}
			abortWithError(c, err)
			return
		}
		metrics.SessionsCreated.Inc()
		c.JSON(http.StatusCreated, sessionResponse(created))
	})

	v1.GET("/sessions", func(c *gin.Context) {
		var f session.ListFilter
		if v := c.Query("program_id"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				f.ProgramID = &id
			}
		}
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				f.Limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				f.Offset = parsed
			}
		}
		list, err := sessions.ListMySessions(c.Request.Context(), auth.ActorFrom(c), f)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, s := range list {
			out = append(out, sessionResponse(s))
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out})
	})

	v1.GET("/sessions/:id", func(c *gin.Context) {
		s, err := sessions.GetSession(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse(s))
	})

	v1.POST("/sessions/:id/end", func(c *gin.Context) {
		s, err := sessions.EndSession(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse(s))
	})

	v1.PUT("/sessions/:id", func(c *gin.Context) {
		var cmd session.UpdateSessionCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s, err := sessions.UpdateSession(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), cmd)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionResponse(s))
	})

	v1.POST("/sessions/:id/reports", func(c *gin.Context) {
		rep, err := reports.Generate(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		metrics.ReportsGenerated.Inc()
		c.JSON(http.StatusCreated, reportResponse(rep))
	})

	v1.GET("/reports/:id", func(c *gin.Context) {
		rep, err := reports.Get(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, reportResponse(rep))
	})

	v1.POST("/reports/:id/export", func(c *gin.Context) {
		var req struct {
			FileType string `json:"file_type" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := exports.Export(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), req.FileType)
		if err != nil {
			abortWithError(c, err)
			return
		}
		metrics.ExportsCompleted.WithLabelValues(res.FileType).Inc()
		c.JSON(http.StatusOK, gin.H{
			"report_id": res.ReportID,
			"file_path": res.FilePath,
			"file_type": res.FileType,
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced shutdown")
	}

	logger.Info().Msg("server exited")
	return nil
}

// abortWithError maps domain error kinds to HTTP status codes. The
// mapping lives only here; the core packages never see HTTP.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, report.ErrUnknownFileType):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, report.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrPermissionDenied),
		errors.Is(err, session.ErrInactiveLecturer),
		errors.Is(err, report.ErrReportAccess):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrOverlappingSession), errors.Is(err, report.ErrAlreadyExported):
		status = http.StatusConflict
	case errors.Is(err, session.ErrCourseNotInProgram),
		errors.Is(err, session.ErrStreamMismatch),
		errors.Is(err, session.ErrLecturerNotAssigned):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func sessionResponse(s session.Session) gin.H {
	resp := gin.H{
		"session_id":  s.ID,
		"program_id":  s.ProgramID,
		"course_id":   s.CourseID,
		"lecturer_id": s.LecturerID,
		"created_at":  s.CreatedAt,
		"time_window": gin.H{"start": s.Window.Start, "end": s.Window.End},
		"location": gin.H{
			"latitude":    s.Location.Latitude,
			"longitude":   s.Location.Longitude,
			"radius_m":    s.Location.RadiusMeters,
			"description": s.Location.Description,
		},
	}
	if s.StreamID != nil {
		resp["stream_id"] = *s.StreamID
	}
	return resp
}

func reportResponse(rep report.Report) gin.H {
	rows := make([]gin.H, 0, len(rep.Rows))
	for _, row := range rep.Rows {
		r := gin.H{
			"student_id":   row.StudentID,
			"student_name": row.StudentName,
			"email":        row.Email,
			"program":      row.Program,
			"stream":       row.Stream,
			"status":       row.Status,
		}
		if row.RecordedAt != nil {
			r["time_recorded"] = row.RecordedAt
		}
		if row.WithinRadius != nil {
			r["within_radius"] = *row.WithinRadius
		}
		if row.Latitude != nil {
			r["latitude"] = *row.Latitude
			r["longitude"] = *row.Longitude
		}
		rows = append(rows, r)
	}
	resp := gin.H{
		"report_id":     rep.ID,
		"session_id":    rep.SessionID,
		"generated_by":  rep.GeneratedBy,
		"generated_at":  rep.GeneratedAt,
		"export_status": rep.ExportStatus,
		"statistics": gin.H{
			"total_students":       rep.Statistics.TotalStudents,
			"present_count":        rep.Statistics.PresentCount,
			"present_percentage":   rep.Statistics.PresentPercentage,
			"absent_count":         rep.Statistics.AbsentCount,
			"absent_percentage":    rep.Statistics.AbsentPercentage,
			"within_radius_count":  rep.Statistics.WithinRadiusCount,
			"outside_radius_count": rep.Statistics.OutsideRadiusCount,
		},
		"rows": rows,
	}
	if rep.FilePath != "" {
		resp["file_path"] = rep.FilePath
		resp["file_type"] = rep.FileType
	}
	return resp
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
