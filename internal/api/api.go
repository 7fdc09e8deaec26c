package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/layout"
	"github.com/celerix-dev/celerix-extract/internal/metrics"
	"github.com/celerix-dev/celerix-extract/pkg/cpf"
	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload file names inside a job directory.
const (
	jsonInput = "input.json"
	xmlInput  = "input.xml"
)

type Handler struct {
	Store          engine.JobStore
	Persister      *engine.Persistence
	Layout         layout.Layout
	CPF            engine.CPFOptions
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// Register mounts the extraction API on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/json", h.ProcessJSON)
		apiGroup.POST("/cpf", h.CountCPFs)
		apiGroup.GET("/cpf/:value", h.ValidateCPF)
		apiGroup.GET("/jobs", h.ListJobs)
		apiGroup.GET("/jobs/:id", h.GetJob)
		apiGroup.GET("/jobs/:id/artifact", h.GetArtifact)
	}
}

// MetricsHandler serves the metrics gathered by g.
func MetricsHandler(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// CORS allows the API to be called from browser tools on other origins.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ProcessJSON(c *gin.Context) {
	job, dir, ok := h.receive(c, schema.KindJSON, jsonInput)
	if !ok {
		return
	}

	start := time.Now()
	report, err := engine.ProcessJSON(filepath.Join(dir, jsonInput), dir, h.Layout)
	if err != nil {
		h.fail(c, job, err, start)
		return
	}

	h.Metrics.AddTables(len(report.Tables))
	h.succeed(c, job, report, report.Message, report.OutputFile, start)
}

func (h *Handler) CountCPFs(c *gin.Context) {
	job, dir, ok := h.receive(c, schema.KindCPF, xmlInput)
	if !ok {
		return
	}

	start := time.Now()
	report, err := engine.CountCPFs(filepath.Join(dir, xmlInput), dir, h.CPF)
	if err != nil {
		h.fail(c, job, err, start)
		return
	}

	h.Metrics.AddCPFs(report.TotalUnique)
	h.succeed(c, job, report, report.Message, report.OutputFile, start)
}

// receive stores the multipart "file" upload in a new job directory.
func (h *Handler) receive(c *gin.Context, kind, inputName string) (schema.Job, string, bool) {
	if h.MaxUploadBytes > 0 {
		if c.Request.ContentLength > h.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return schema.Job{}, "", false
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return schema.Job{}, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field \"file\""})
		return schema.Job{}, "", false
	}

	job := schema.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		InputName: file.Filename,
		CreatedAt: time.Now().UTC(),
	}

	dir, err := h.Persister.JobDir(job.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return schema.Job{}, "", false
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, inputName)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return schema.Job{}, "", false
	}
	return job, dir, true
}

func (h *Handler) succeed(c *gin.Context, job schema.Job, report any, message, output string, start time.Time) {
	job.Status = schema.StatusSucceeded
	job.Message = message
	job.Artifact = filepath.Base(output)
	h.record(job)
	h.Metrics.ObserveRun(job.Kind, "ok", time.Since(start))

	slog.Info("job finished", "job", job.ID, "pipeline", job.Kind, "artifact", job.Artifact)
	c.JSON(http.StatusOK, gin.H{"job": job, "report": report})
}

func (h *Handler) fail(c *gin.Context, job schema.Job, err error, start time.Time) {
	code := engine.Code(err)
	job.Status = schema.StatusFailed
	job.Code = code
	job.Message = engine.Message(err)
	h.record(job)
	h.Metrics.ObserveRun(job.Kind, code, time.Since(start))

	status := http.StatusUnprocessableEntity
	if code == engine.CodeInternal {
		status = http.StatusInternalServerError
		slog.Error("job failed", "job", job.ID, "pipeline", job.Kind, "error", err)
	} else {
		slog.Info("job rejected", "job", job.ID, "pipeline", job.Kind, "code", code)
	}
	c.JSON(status, gin.H{"error": code, "message": job.Message, "job": job})
}

func (h *Handler) record(job schema.Job) {
	if err := h.Store.Put(job); err != nil {
		slog.Warn("could not record job", "job", job.ID, "error", err)
	}
}

func (h *Handler) ValidateCPF(c *gin.Context) {
	value := c.Param("value")
	c.JSON(http.StatusOK, gin.H{
		"input":      value,
		"normalized": cpf.Normalize(value),
		"formatted":  cpf.Format(value),
		"valid":      cpf.Valid(value),
	})
}

func (h *Handler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.List())
}

func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.Store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) GetArtifact(c *gin.Context) {
	job, err := h.Store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if job.Artifact == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "job has no artifact"})
		return
	}

	dir, err := h.Persister.JobPath(job.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(filepath.Join(dir, job.Artifact), job.Artifact)
}
