package handler

import (
	"net/http"

	"ruralmatch/internal/model"
	"ruralmatch/internal/service"
	"ruralmatch/internal/session"

	"github.com/gin-gonic/gin"
)

// DialogueHandler serves guided search dialogues held in a session store.
type DialogueHandler struct {
	sessions    *session.Store[*service.SearchDialogue]
	newDialogue func() *service.SearchDialogue
}

// NewDialogueHandler creates a dialogue handler. newDialogue builds the
// dialogue behind each new session.
func NewDialogueHandler(sessions *session.Store[*service.SearchDialogue], newDialogue func() *service.SearchDialogue) *DialogueHandler {
	return &DialogueHandler{sessions: sessions, newDialogue: newDialogue}
}

// Create handles POST /api/v1/dialogues
func (h *DialogueHandler) Create(c *gin.Context) {
	d := h.newDialogue()
	reply := d.Open()
	id := h.sessions.Create(d)
	c.JSON(http.StatusCreated, dialogueResponse(id, d, reply))
}

// SubmitTurn handles POST /api/v1/dialogues/:id/turns
func (h *DialogueHandler) SubmitTurn(c *gin.Context) {
	id := c.Param("id")
	d, ok := h.sessions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dialogue not found"})
		return
	}

	var req model.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply := d.SubmitTurn(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, dialogueResponse(id, d, reply))
}

// Restart handles POST /api/v1/dialogues/:id/restart
func (h *DialogueHandler) Restart(c *gin.Context) {
	id := c.Param("id")
	d, ok := h.sessions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dialogue not found"})
		return
	}
	reply := d.Restart()
	c.JSON(http.StatusOK, dialogueResponse(id, d, reply))
}

// Close handles DELETE /api/v1/dialogues/:id
func (h *DialogueHandler) Close(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dialogue not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func dialogueResponse(id string, d *service.SearchDialogue, reply service.DialogueReply) model.DialogueResponse {
	return model.DialogueResponse{
		SessionID:  id,
		Reply:      reply.Text,
		Phase:      reply.Phase,
		Filters:    reply.Filters,
		Candidates: reply.Candidates,
		History:    d.State().History,
	}
}
