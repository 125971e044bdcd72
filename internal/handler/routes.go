package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	Search   *SearchHandler
	Feedback *FeedbackHandler
	Dialogue *DialogueHandler
	Intake   *IntakeHandler
}

// RegisterRoutes mounts the API on group, usually /api/v1.
func RegisterRoutes(group *gin.RouterGroup, h Handlers) {
	// Search endpoints
	group.POST("/search", h.Search.Search)
	group.GET("/listings/:id", h.Search.GetListing)

	// Feedback endpoint
	group.POST("/feedback", h.Feedback.Submit)

	// Guided search dialogues
	dialogues := group.Group("/dialogues")
	{
		dialogues.POST("", h.Dialogue.Create)
		dialogues.POST("/:id/turns", h.Dialogue.SubmitTurn)
		dialogues.POST("/:id/restart", h.Dialogue.Restart)
		dialogues.DELETE("/:id", h.Dialogue.Close)
	}

	// Listing intake wizards
	intake := group.Group("/intake")
	{
		intake.POST("", h.Intake.Create)
		intake.GET("/:id", h.Intake.Get)
		intake.POST("/:id/answers", h.Intake.SubmitAnswer)
		intake.POST("/:id/images", h.Intake.AttachImages)
		intake.POST("/:id/confirm", h.Intake.Confirm)
		intake.DELETE("/:id", h.Intake.Close)
	}
}
