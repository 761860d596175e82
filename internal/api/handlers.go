package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"audiosketch/internal/logging"
	"audiosketch/internal/logs"
	"audiosketch/internal/project"
	"audiosketch/internal/services"
	"audiosketch/internal/services/openai"
	"audiosketch/internal/workflow"
)

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), s.logger), "request error", "api_error",
			logging.Error(err),
			logging.String("path", c.FullPath()),
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Kind: services.Classify(err)})
}

func (s *Server) listImageModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.manager.ImageModels()})
}

func (s *Server) listProjects(c *gin.Context) {
	summaries, err := s.manager.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	if summaries == nil {
		summaries = []project.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": summaries})
}

// submitProject accepts the narration form: project_id, audio, prompt_count,
// context, style and image_model. It finds or creates the project and runs
// the pipeline synchronously.
func (s *Server) submitProject(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fields := project.Fields{
		ProjectID:  strings.TrimSpace(c.PostForm("project_id")),
		Context:    c.PostForm("context"),
		Style:      c.PostForm("style"),
		ImageModel: c.PostForm("image_model"),
	}
	if raw := strings.TrimSpace(c.PostForm("prompt_count")); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count < 1 {
			s.fail(c, services.Wrap(services.ErrValidation, "api", "submit", "prompt_count must be a positive integer", nil))
			return
		}
		fields.PromptCount = count
	}

	var audio *openai.Audio
	header, err := c.FormFile("audio")
	switch {
	case err == nil:
		file, openErr := header.Open()
		if openErr != nil {
			s.fail(c, services.Wrap(services.ErrValidation, "api", "submit", "read audio upload", openErr))
			return
		}
		defer file.Close()
		audio = &openai.Audio{Name: filepath.Base(header.Filename), Reader: file}
		fields.AudioSourceName = audio.Name
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		s.fail(c, services.Wrap(services.ErrValidation, "api", "submit", "parse multipart form", err))
		return
	}

	proj, err := s.manager.Submit(c.Request.Context(), workflow.Submission{Fields: fields, Audio: audio})
	if err != nil {
		if proj.ID != "" {
			c.Header("X-Project-ID", proj.ID)
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectView(proj))
}

func (s *Server) getProject(c *gin.Context) {
	proj, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectView(proj))
}

func (s *Server) runPipeline(c *gin.Context) {
	proj, err := s.manager.RunPipeline(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectView(proj))
}

func (s *Server) listActions(c *gin.Context) {
	statuses, err := s.manager.Actions(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	pending := []string{}
	for _, status := range statuses {
		if !status.Completed {
			pending = append(pending, status.Name)
		}
	}
	c.JSON(http.StatusOK, gin.H{"actions": statuses, "pending": pending})
}

func (s *Server) runAction(c *gin.Context) {
	proj, err := s.manager.RunAction(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectView(proj))
}

func (s *Server) projectHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.fail(c, services.Wrap(services.ErrValidation, "api", "history", "limit must be a non-negative integer", nil))
			return
		}
		limit = parsed
	}
	entries, err := s.manager.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": newHistoryViews(entries)})
}

// projectFile serves one working image from the project directory.
func (s *Server) projectFile(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("file")
	if !project.ValidID(id) || name != filepath.Base(name) || !strings.EqualFold(filepath.Ext(name), project.ImageExt) {
		s.fail(c, services.Wrap(services.ErrNotFound, "api", "file", name, nil))
		return
	}
	path := filepath.Join(s.manager.Store().Dir(id), name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		s.fail(c, services.Wrap(services.ErrNotFound, "api", "file", name, nil))
		return
	}
	c.File(path)
}

// tailLogs returns log records after offset, or the last limit records when
// offset is omitted. project narrows the result to one project.
func (s *Server) tailLogs(c *gin.Context) {
	opts := logs.TailOptions{Offset: -1, Limit: 100, ProjectID: c.Query("project")}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			s.fail(c, services.Wrap(services.ErrValidation, "api", "logs", "offset must be a non-negative integer", nil))
			return
		}
		opts.Offset = offset
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.fail(c, services.Wrap(services.ErrValidation, "api", "logs", "limit must be a positive integer", nil))
			return
		}
		opts.Limit = limit
	}
	if s.logPath == "" {
		c.JSON(http.StatusOK, gin.H{"lines": []string{}, "offset": 0})
		return
	}
	result, err := logs.Tail(c.Request.Context(), s.logPath, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines, "offset": result.Offset})
}
