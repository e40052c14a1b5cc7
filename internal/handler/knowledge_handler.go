package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lakgs-api/internal/dto"
	"github.com/noah-isme/lakgs-api/internal/service"
	"github.com/noah-isme/lakgs-api/pkg/response"
)

// KnowledgeHandler exposes the knowledge query endpoints.
type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

// NewKnowledgeHandler constructs the knowledge handler.
func NewKnowledgeHandler(knowledge *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// Search godoc
// @Summary Keyword search
// @Tags Knowledge
// @Produce json
// @Param q query string true "Keyword"
// @Param kind query string false "all, lesson, event, figure or concept"
// @Param limit query int false "Maximum hits"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /knowledge/search [get]
func (h *KnowledgeHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if !bindQuery(c, &query) {
		return
	}
	bundle, err := h.knowledge.Search(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, bundle)
}

// Topics lists the topic table.
func (h *KnowledgeHandler) Topics(c *gin.Context) {
	ok(c, http.StatusOK, h.knowledge.Topics())
}

// Topic godoc
// @Summary Search by topic
// @Tags Knowledge
// @Produce json
// @Param name path string true "Topic name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /knowledge/topics/{name} [get]
func (h *KnowledgeHandler) Topic(c *gin.Context) {
	result, err := h.knowledge.SearchByTopic(c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// Timeline godoc
// @Summary Dated events in a year range
// @Tags Knowledge
// @Produce json
// @Param start query int false "First year, negative for BCE"
// @Param end query int false "Last year"
// @Param limit query int false "Maximum events"
// @Success 200 {object} response.Envelope
// @Router /knowledge/timeline [get]
func (h *KnowledgeHandler) Timeline(c *gin.Context) {
	var query dto.TimelineQuery
	if !bindQuery(c, &query) {
		return
	}
	events, err := h.knowledge.Timeline(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, events)
}

// Related extracts keywords from a question and returns matching knowledge.
func (h *KnowledgeHandler) Related(c *gin.Context) {
	var req dto.RelatedRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	bundle, err := h.knowledge.RelatedKnowledge(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, bundle)
}
