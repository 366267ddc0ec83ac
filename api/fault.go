package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/fault"
)

func (a *API) getFaultHandler(c *gin.Context) {
	id, ok := faultID(c)
	if !ok {
		return
	}

	f, err := a.fr.GetByID(c, id)
	if err != nil {
		a.faultError(c, err)
		return
	}
	c.JSON(http.StatusOK, f.ToDetails())
}

func (a *API) getOpenFaultsHandler(c *gin.Context) {
	faults, err := a.fr.GetOpen(c)
	if err != nil {
		a.internalError(c, "failed to get open faults", err)
		return
	}

	details := make([]fault.Details, 0, len(faults))
	for _, f := range faults {
		details = append(details, f.ToDetails())
	}
	c.JSON(http.StatusOK, details)
}

func (a *API) getScooterFaultHandler(c *gin.Context) {
	f, err := a.fr.LatestForScooter(c, c.Param("scooterId"))
	if err != nil {
		a.faultError(c, err)
		return
	}
	c.JSON(http.StatusOK, f.ToDetails())
}

type reportFaultRequest struct {
	ScooterID string `json:"scooterID" binding:"required"`
	Notes     string `json:"faultNotes" binding:"required"`
}

func (a *API) reportFaultHandler(c *gin.Context) {
	var req reportFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := a.fr.Upsert(c, req.ScooterID, req.Notes, time.Now())
	if err != nil {
		a.internalError(c, "failed to record fault", err)
		return
	}
	c.JSON(http.StatusOK, f.ToDetails())
}

type resolveFaultRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

func (a *API) resolveFaultHandler(c *gin.Context) {
	id, ok := faultID(c)
	if !ok {
		return
	}

	var req resolveFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := a.fr.Resolve(c, id, req.Resolution, time.Now())
	if err != nil {
		a.faultError(c, err)
		return
	}
	c.JSON(http.StatusOK, f.ToDetails())
}

func faultID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("faultId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid faultId"})
		return uuid.UUID{}, false
	}
	return id, true
}

func (a *API) faultError(c *gin.Context, err error) {
	if errors.Is(err, fault.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "fault not found"})
		return
	}
	a.internalError(c, "fault operation failed", err)
}
