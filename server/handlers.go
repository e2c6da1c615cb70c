package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dice-app/dice/export"
	"github.com/dice-app/dice/session"
	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CreateSessionInput struct {
	Config          string `json:"config" binding:"required"`
	NumParticipants int    `json:"num_participants"`
}

type ParticipantLink struct {
	Code      string `json:"code"`
	IdInGroup int    `json:"id_in_group"`
	Url       string `json:"url"`
}

// Handlers serves the admin and participant routes on top of a session
// service.
type Handlers struct {
	Service *session.Service
}

func abortWithError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, utils.ErrorInternal
	switch {
	case errors.Is(err, session.ErrParticipantNotFound):
		status, code = http.StatusNotFound, utils.ErrorParticipantNotFound
	case errors.Is(err, session.ErrSessionNotFound):
		status, code = http.StatusNotFound, utils.ErrorSessionNotFound
	case errors.Is(err, session.ErrWrongPage):
		status, code = http.StatusConflict, utils.ErrorWrongPage
	default:
		Logger.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"code": code, "msg": err.Error()})
	c.Abort()
}

func (h *Handlers) CreateSession(c *gin.Context) {
	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": err.Error()})
		return
	}
	created, err := h.Service.CreateSession(c.Request.Context(), input.Config, input.NumParticipants)
	if err != nil {
		Logger.Log.WithError(err).WithField("config", input.Config).Error("fail to create session")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": utils.ErrorSessionBootstrap, "msg": err.Error()})
		return
	}

	links := make([]ParticipantLink, 0, len(created.Participants))
	for _, p := range created.Participants {
		links = append(links, ParticipantLink{
			Code:      p.Code,
			IdInGroup: p.IdInGroup,
			Url:       "/p/" + p.Code,
		})
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":            created.Code,
		"config":          created.ConfigName,
		"feed_conditions": created.FeedConditions,
		"participants":    links,
	})
}

func (h *Handlers) ExportSession(c *gin.Context) {
	code := c.Param("code")
	rows, err := h.Service.Export(c.Request.Context(), code)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(code)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ParticipantLabelParam is the query parameter recruiters use to pass their
// own participant id on the entry link.
const ParticipantLabelParam = "participant_label"

// Enter is the entry point of a participant link. It stores the label passed
// on the link and answers like CurrentPage.
func (h *Handlers) Enter(c *gin.Context) {
	if label := c.Query(ParticipantLabelParam); label != "" {
		if err := h.Service.SetLabel(c.Request.Context(), c.Param("code"), label); err != nil {
			abortWithError(c, err)
			return
		}
	}
	h.CurrentPage(c)
}

// CurrentPage tells the client which page to render for the participant.
func (h *Handlers) CurrentPage(c *gin.Context) {
	code := c.Param("code")
	page, err := h.Service.CurrentPage(c.Request.Context(), code)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page.String(), "url": "/p/" + code + "/" + page.String()})
}

func (h *Handlers) CompleteIntro(c *gin.Context) {
	h.complete(c, h.Service.CompleteIntro(c.Request.Context(), c.Param("code")))
}

func (h *Handlers) CompleteBriefing(c *gin.Context) {
	h.complete(c, h.Service.CompleteBriefing(c.Request.Context(), c.Param("code")))
}

// complete answers a page submission with the page to go to next.
func (h *Handlers) complete(c *gin.Context, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.CurrentPage(c)
}

func (h *Handlers) FeedView(c *gin.Context) {
	view, err := h.Service.FeedView(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitFeed accepts the telemetry either as JSON or as a form post.
func (h *Handlers) SubmitFeed(c *gin.Context) {
	var telemetry session.Telemetry
	if err := c.ShouldBind(&telemetry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": err.Error()})
		return
	}
	h.complete(c, h.Service.SubmitFeed(c.Request.Context(), c.Param("code"), telemetry))
}

func (h *Handlers) RedirectView(c *gin.Context) {
	view, err := h.Service.RedirectView(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) Debrief(c *gin.Context) {
	view, err := h.Service.Debrief(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
