package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"ruralmatch/internal/model"
	"ruralmatch/internal/service"
	"ruralmatch/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// imagesFormField is the multipart field carrying listing photos.
const imagesFormField = "images"

// IntakeHandler serves listing intake wizards held in a session store.
type IntakeHandler struct {
	sessions  *session.Store[*service.IntakeWizard]
	newWizard func() *service.IntakeWizard
}

// NewIntakeHandler creates an intake handler.
func NewIntakeHandler(sessions *session.Store[*service.IntakeWizard], newWizard func() *service.IntakeWizard) *IntakeHandler {
	return &IntakeHandler{sessions: sessions, newWizard: newWizard}
}

type intakeResponse struct {
	SessionID string         `json:"session_id"`
	Prompt    service.Prompt `json:"prompt"`
	Images    int            `json:"images"`
}

type answerResponse struct {
	SessionID string `json:"session_id"`
	service.AnswerResult
}

type commitResponse struct {
	SessionID string `json:"session_id"`
	service.CommitResult
}

// Create handles POST /api/v1/intake
func (h *IntakeHandler) Create(c *gin.Context) {
	w := h.newWizard()
	id := h.sessions.Create(w)
	c.JSON(http.StatusCreated, intakeResponse{SessionID: id, Prompt: w.CurrentPrompt()})
}

// Get handles GET /api/v1/intake/:id
func (h *IntakeHandler) Get(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, intakeResponse{SessionID: id, Prompt: w.CurrentPrompt(), Images: len(w.Draft().Images)})
}

// SubmitAnswer handles POST /api/v1/intake/:id/answers
func (h *IntakeHandler) SubmitAnswer(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	res := w.SubmitAnswer(c.Request.Context(), req.Answer)
	status := http.StatusOK
	if !res.Accepted {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, answerResponse{SessionID: c.Param("id"), AnswerResult: res})
}

// AttachImages handles POST /api/v1/intake/:id/images (multipart)
func (h *IntakeHandler) AttachImages(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	headers := form.File[imagesFormField]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No images in field \"" + imagesFormField + "\""})
		return
	}

	files := make([]model.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readImage(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read " + fh.Filename})
			return
		}
		files = append(files, f)
	}

	total, err := w.AttachImages(files)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "images": total})
		return
	}
	c.JSON(http.StatusOK, intakeResponse{SessionID: c.Param("id"), Prompt: w.CurrentPrompt(), Images: total})
}

// Confirm handles POST /api/v1/intake/:id/confirm
func (h *IntakeHandler) Confirm(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}

	res := w.ConfirmAndCommit(c.Request.Context())
	status := http.StatusOK
	switch {
	case res.Success:
		status = http.StatusCreated
	case res.Field != "" || res.Error == service.ErrNotConfirming.Error():
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusBadGateway
	}
	c.JSON(status, commitResponse{SessionID: c.Param("id"), CommitResult: res})
}

// Close handles DELETE /api/v1/intake/:id
func (h *IntakeHandler) Close(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Intake session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *IntakeHandler) wizard(c *gin.Context) (*service.IntakeWizard, bool) {
	w, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Intake session not found"})
		return nil, false
	}
	return w, true
}

func readImage(fh *multipart.FileHeader) (model.ImageFile, error) {
	src, err := fh.Open()
	if err != nil {
		return model.ImageFile{}, err
	}
	defer src.Close() //nolint:errcheck

	data, err := io.ReadAll(src)
	if err != nil {
		zap.L().Warn("read uploaded image failed", zap.String("name", fh.Filename), zap.Error(err))
		return model.ImageFile{}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return model.ImageFile{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}
