package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/protforge/mutameter/internal/errors"
	"github.com/protforge/mutameter/internal/monitoring"
	"github.com/protforge/mutameter/internal/ratelimit"
	"github.com/protforge/mutameter/internal/report"
	"github.com/protforge/mutameter/internal/run"
	"github.com/protforge/mutameter/internal/scan"
	"github.com/protforge/mutameter/internal/scorer"
	"github.com/protforge/mutameter/internal/security"
	"github.com/protforge/mutameter/internal/seqio"
	"github.com/protforge/mutameter/internal/store"
	"github.com/protforge/mutameter/internal/types"
)

// app bundles the services the handlers need.
type app struct {
	pipeline  *run.Pipeline
	store     *store.Store
	metrics   *monitoring.Metrics
	logger    *monitoring.Logger
	limiter   *ratelimit.RateLimiter
	uploadDir string
}

func main() {
	logger := monitoring.NewLogger()
	slog.SetDefault(logger.Logger)

	port := getEnvOrDefault("PORT", "8080")
	interpreter := getEnvOrDefault("SCORER_INTERPRETER", "python3")
	scriptDir := getEnvOrDefault("SCORER_SCRIPT_DIR", "./scorers")
	outputDir := getEnvOrDefault("OUTPUT_DIR", "./output")
	uploadDir := getEnvOrDefault("UPLOAD_DIR", "./uploads")
	runTTL := getDurationOrDefault("RUN_TTL", 24*time.Hour)

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		slog.Error("Failed to create upload dir", "error", err)
		os.Exit(1)
	}

	invoker, err := scorer.NewInvoker(interpreter, scriptDir, outputDir)
	if err != nil {
		slog.Error("Failed to initialize invoker", "error", err)
		os.Exit(1)
	}

	metrics := monitoring.NewMetrics()
	runStore := store.New(runTTL)

	a := &app{
		pipeline: &run.Pipeline{
			Invoker:    invoker,
			Summarizer: report.NewSummarizer(),
			Store:      runStore,
			OutputDir:  outputDir,
			Logger:     logger,
			Metrics:    metrics,
		},
		store:     runStore,
		metrics:   metrics,
		logger:    logger,
		limiter:   ratelimit.NewRateLimiter(ratelimit.DefaultConfig()),
		uploadDir: uploadDir,
	}

	r := a.setupRouter()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func (a *app) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(security.HeadersMiddleware())
	r.Use(a.limiter.IPRateLimitMiddleware())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", a.handleHealth)
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.metrics.GetStats())
	})
	r.GET("/store/stats", func(c *gin.Context) {
		stats := a.store.Stats()
		stats["rate_limiter"] = a.limiter.GetStats()
		c.JSON(http.StatusOK, stats)
	})

	api := r.Group("/api/v1")
	{
		api.POST("/scan", a.limiter.ScanRateLimitMiddleware(), a.handleScan)
		api.GET("/runs/:id", a.handleRunStatus)
		api.GET("/runs/:id/heatmap", a.handleHeatmap)
		api.GET("/runs/:id/results", a.handleResults)
		api.GET("/runs/:id/bundle", a.handleBundle)
		api.POST("/sequence", a.handleSequence)
		api.GET("/scorers", a.handleScorers)
		api.GET("/providers", a.handleProviders)
	}

	return r
}

func (a *app) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   a.metrics.GetStats(),
	})
}

// scanForm is the multipart variant of a scan submission. The input file
// travels in the "file" part.
type scanForm struct {
	Kind       string `form:"kind"`
	Scorer     string `form:"scorer"`
	EnableAI   bool   `form:"enable_ai"`
	AIProvider string `form:"ai_provider"`
	APIKey     string `form:"api_key"`
}

func (a *app) handleScan(c *gin.Context) {
	var req types.ScanRequest

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var form scanForm
		if err := c.ShouldBind(&form); err != nil {
			a.abortWith(c, errors.NewValidationError("invalid scan form"))
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			a.abortWith(c, errors.NewValidationError("missing input file"))
			return
		}

		dst := filepath.Join(a.uploadDir, time.Now().Format("20060102T150405")+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			a.abortWith(c, errors.NewInternalError("failed to store uploaded file", err))
			return
		}

		req = types.ScanRequest{
			Kind:       types.AnalysisKind(form.Kind),
			Scorer:     form.Scorer,
			InputPath:  dst,
			EnableAI:   form.EnableAI,
			AIProvider: form.AIProvider,
			UserAPIKey: form.APIKey,
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			a.abortWith(c, errors.NewValidationError("invalid scan request body"))
			return
		}
		req.UserAPIKey = c.GetHeader("X-AI-API-Key")
	}

	if !req.Kind.Valid() {
		a.abortWith(c, errors.NewValidationError("kind must be \"sequence\" or \"structure\""))
		return
	}
	if _, ok := scorer.Lookup(req.Kind, req.Scorer); !ok {
		a.abortWith(c, errors.NewValidationError("unknown scorer for kind "+string(req.Kind)+": "+req.Scorer))
		return
	}
	if req.InputPath == "" {
		a.abortWith(c, errors.NewValidationError("input_path is required"))
		return
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		a.abortWith(c, errors.NewValidationError("input file not found: "+req.InputPath))
		return
	}
	if req.EnableAI && req.AIProvider != "" {
		if _, ok := report.LookupProvider(req.AIProvider); !ok {
			a.abortWith(c, errors.NewValidationError("unknown AI provider: "+req.AIProvider))
			return
		}
	}

	id := a.pipeline.Start(req)
	c.JSON(http.StatusAccepted, gin.H{
		"run_id": id,
		"stage":  types.StageStarted,
	})
}

func (a *app) handleRunStatus(c *gin.Context) {
	rec, ok := a.store.Get(c.Param("id"))
	if !ok {
		a.abortWith(c, errors.NewNotFoundError("run not found"))
		return
	}
	c.JSON(http.StatusOK, rec.Status())
}

func (a *app) handleHeatmap(c *gin.Context) {
	rec, ok := a.store.Get(c.Param("id"))
	if !ok {
		a.abortWith(c, errors.NewNotFoundError("run not found"))
		return
	}
	if rec.Stage == types.StageStarted {
		a.abortWith(c, errors.NewValidationError("run has not produced results yet"))
		return
	}
	if rec.Stage == types.StageFailed {
		a.abortWith(c, errors.NewInvocationError(rec.Message, nil))
		return
	}
	if !rec.SchemaOK {
		a.abortWith(c, errors.NewSchemaError("results table columns could not be identified"))
		return
	}

	view := scan.View(c.DefaultQuery("view", string(scan.ViewSummary)))
	if view != scan.ViewSummary && view != scan.ViewFull {
		a.abortWith(c, errors.NewValidationError("view must be \"summary\" or \"full\""))
		return
	}

	h := scan.BuildView(rec.Ranked, view)
	if h == nil {
		a.abortWith(c, errors.NewSchemaError("no valid mutations in results"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"view":            view,
		"row_labels":      h.RowLabels,
		"col_labels":      h.ColLabels,
		"bins":            scan.NullableCells(h.Bins, h.Present),
		"ranks":           scan.NullableCells(h.Ranks, h.Present),
		"scores":          scan.NullableCells(h.Scores, h.Present),
		"total_positions": h.TotalPositions,
		"partial":         h.IsPartial(),
	})
}

func (a *app) handleResults(c *gin.Context) {
	rec, ok := a.store.Get(c.Param("id"))
	if !ok {
		a.abortWith(c, errors.NewNotFoundError("run not found"))
		return
	}
	if rec.Stage == types.StageStarted {
		a.abortWith(c, errors.NewValidationError("run has not produced results yet"))
		return
	}
	if rec.Stage == types.StageFailed {
		a.abortWith(c, errors.NewInvocationError(rec.Message, nil))
		return
	}

	resp := gin.H{
		"status":  rec.Message,
		"columns": rec.Table.Columns,
		"rows":    rec.Table.Rows,
	}
	if rec.SchemaOK {
		resp["ranked"] = rec.Ranked
	}
	if rec.Stage == types.StageComplete {
		resp["summary"] = rec.Summary
		resp["summary_ok"] = rec.SummaryOK
	}
	c.JSON(http.StatusOK, resp)
}

func (a *app) handleBundle(c *gin.Context) {
	rec, ok := a.store.Get(c.Param("id"))
	if !ok {
		a.abortWith(c, errors.NewNotFoundError("run not found"))
		return
	}
	if rec.BundlePath == "" {
		a.abortWith(c, errors.NewNotFoundError("bundle not available for this run"))
		return
	}
	if _, err := os.Stat(rec.BundlePath); err != nil {
		a.abortWith(c, errors.NewNotFoundError("bundle file no longer exists"))
		return
	}
	c.FileAttachment(rec.BundlePath, filepath.Base(rec.BundlePath))
}

// handleSequence extracts the amino acid sequence from an input file so
// clients can preview what will be scored.
func (a *app) handleSequence(c *gin.Context) {
	var req struct {
		Kind types.AnalysisKind `json:"kind"`
		Path string             `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWith(c, errors.NewValidationError("invalid sequence request body"))
		return
	}
	if !req.Kind.Valid() {
		a.abortWith(c, errors.NewValidationError("kind must be \"sequence\" or \"structure\""))
		return
	}

	var seq string
	var err error
	if req.Kind == types.KindSequence {
		seq, err = seqio.ReadFastaFile(req.Path)
	} else {
		seq, err = seqio.ReadPDBFile(req.Path)
	}
	if err != nil {
		a.abortWith(c, errors.NewValidationError("failed to read sequence: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sequence": seq,
		"length":   len(seq),
	})
}

func (a *app) handleScorers(c *gin.Context) {
	kind := types.AnalysisKind(c.DefaultQuery("kind", string(types.KindSequence)))
	if !kind.Valid() {
		a.abortWith(c, errors.NewValidationError("kind must be \"sequence\" or \"structure\""))
		return
	}

	specs := scorer.List(kind)
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":    kind,
		"scorers": names,
	})
}

func (a *app) handleProviders(c *gin.Context) {
	providers := report.ListProviders()
	resp := make([]gin.H, len(providers))
	for i, p := range providers {
		resp[i] = gin.H{
			"name":    p.Name,
			"model":   p.Model,
			"env_var": p.EnvVar,
		}
	}
	c.JSON(http.StatusOK, gin.H{"providers": resp})
}

func (a *app) abortWith(c *gin.Context, err *errors.AppError) {
	errors.LogError(c, err)
	c.AbortWithStatusJSON(err.HTTPStatus, err)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
