package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loungefm/loungefm/internal/app"
	"github.com/loungefm/loungefm/internal/core"
	"github.com/loungefm/loungefm/internal/domain"
)

// LoungeHandler exposes the management operations as request/response;
// every state change it triggers is fanned out by the lounge services
// through the injected broker.
type LoungeHandler struct {
	Lounges *app.LoungeManager
	Broker  core.Broker
}

// loungeView is the lounge record plus live channel occupancy.
type loungeView struct {
	domain.Lounge
	MemberCount int `json:"memberCount"`
	ActiveUsers int `json:"activeUsers"`
}

func (h *LoungeHandler) view(svc core.LoungeService) loungeView {
	snap := svc.Snapshot()
	return loungeView{
		Lounge:      snap,
		MemberCount: len(snap.MemberIDs),
		ActiveUsers: h.Broker.SubscriberCount(snap.ID),
	}
}

func (h *LoungeHandler) views(svcs []core.LoungeService) []loungeView {
	out := make([]loungeView, 0, len(svcs))
	for _, svc := range svcs {
		out = append(out, h.view(svc))
	}
	return out
}

func (h *LoungeHandler) Create(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		MaxMembers int    `json:"maxMembers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lounge name is required"})
		return
	}
	svc, err := h.Lounges.Create(req.Name, currentUser(c).ID, req.MaxMembers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lounge": h.view(svc)})
}

func (h *LoungeHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"lounges": h.views(h.Lounges.ListActive())})
}

func (h *LoungeHandler) Mine(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"lounges": h.views(h.Lounges.ListForUser(currentUser(c).ID))})
}

func (h *LoungeHandler) JoinByCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lounge code is required"})
		return
	}
	svc, err := h.Lounges.FindByCode(req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := svc.Join(currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lounge": h.view(svc)})
}

func (h *LoungeHandler) Detail(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil || !svc.Active() {
		writeError(c, domain.ErrLoungeNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lounge":   h.view(svc),
		"playlist": svc.Playlist(),
	})
}

func (h *LoungeHandler) Leave(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := svc.Leave(currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left lounge successfully"})
}

func (h *LoungeHandler) Delete(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := svc.Delete(currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lounge deleted successfully"})
}

func (h *LoungeHandler) AddTrack(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	var req struct {
		Track domain.TrackInput `json:"track" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track is required"})
		return
	}
	track, err := svc.AddTrack(currentUser(c).ID, req.Track)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"song": track})
}

func (h *LoungeHandler) Vote(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	var req struct {
		Vote int `json:"vote" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vote data"})
		return
	}
	track, err := svc.Vote(currentUser(c).ID, domain.TrackID(c.Param("trackId")), domain.Direction(req.Vote))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"song": track})
}

func (h *LoungeHandler) RemoveTrack(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := svc.RemoveTrack(currentUser(c).ID, domain.TrackID(c.Param("trackId"))); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "song removed successfully"})
}

func (h *LoungeHandler) MarkPlayed(c *gin.Context) {
	svc, err := h.Lounges.Get(domain.LoungeID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	track, err := svc.MarkPlayed(domain.TrackID(c.Param("trackId")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"song": track})
}

// writeError maps domain error kinds onto HTTP statuses. Errors only ever
// reach the originating caller.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrLoungeNotFound), errors.Is(err, domain.ErrTrackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotMember), errors.Is(err, domain.ErrNotCreator), errors.Is(err, domain.ErrCannotRemove):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrLoungeFull), errors.Is(err, domain.ErrDuplicateTrack):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNameEmpty), errors.Is(err, domain.ErrCapacityTooSmall), errors.Is(err, domain.ErrBadDirection):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
