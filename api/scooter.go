package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/scootershare/scooter"
)

func (a *API) getScooterHandler(c *gin.Context) {
	s, err := a.sr.GetScooter(c, c.Param("scooterId"))
	if err != nil {
		a.scooterError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScooterDetails(s))
}

func (a *API) getAllScootersHandler(c *gin.Context) {
	scooters, err := a.sr.GetScooters(c)
	if err != nil {
		a.internalError(c, "failed to get scooters", err)
		return
	}

	details := make([]scooter.Details, 0, len(scooters))
	for _, s := range scooters {
		details = append(details, toScooterDetails(s))
	}
	c.JSON(http.StatusOK, details)
}

type updateScooterStatusRequest struct {
	Status scooter.Status `json:"status" binding:"required"`
}

func (a *API) updateScooterStatusHandler(c *gin.Context) {
	var req updateScooterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scooter status"})
		return
	}

	id := c.Param("scooterId")
	if err := a.sr.UpdateStatus(c, id, req.Status); err != nil {
		a.scooterError(c, err)
		return
	}

	s, err := a.sr.GetScooter(c, id)
	if err != nil {
		a.scooterError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScooterDetails(s))
}

type updateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (a *API) updateScooterLocationHandler(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.sr.UpdateLocation(c, c.Param("scooterId"), req.Latitude, req.Longitude); err != nil {
		a.scooterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location updated"})
}

type updateIPRequest struct {
	IPAddress string `json:"ipAddress" binding:"required"`
}

func (a *API) updateScooterIPHandler(c *gin.Context) {
	var req updateIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.sr.UpdateIPAddress(c, c.Param("scooterId"), req.IPAddress); err != nil {
		a.scooterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ip address updated"})
}

type updateScooterDetailsRequest struct {
	Make              string  `json:"make"`
	Colour            string  `json:"colour"`
	CostMin           float64 `json:"costMin"`
	BatteryPercentage int     `json:"batteryPercentage"`
}

func (a *API) updateScooterDetailsHandler(c *gin.Context) {
	var req updateScooterDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("scooterId")
	if err := a.sr.UpdateDetails(c, id, req.Make, req.Colour, req.CostMin, req.BatteryPercentage); err != nil {
		a.scooterError(c, err)
		return
	}

	s, err := a.sr.GetScooter(c, id)
	if err != nil {
		a.scooterError(c, err)
		return
	}
	c.JSON(http.StatusOK, toScooterDetails(s))
}

func (a *API) scooterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scooter.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "scooter not found"})
	case errors.Is(err, scooter.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scooter status"})
	default:
		a.internalError(c, "scooter operation failed", err)
	}
}

func toScooterDetails(s scooter.Scooter) scooter.Details {
	d := scooter.Details{
		ScooterID:         s.ID,
		Make:              s.Make,
		Colour:            s.Colour,
		Latitude:          s.Location.P.X,
		Longitude:         s.Location.P.Y,
		CostMin:           s.CostMin,
		BatteryPercentage: s.BatteryPercentage,
		Status:            s.Status,
		IPAddress:         s.IPAddress,
	}
	if s.FaultNotes.Valid {
		d.FaultNotes = s.FaultNotes.String
	}
	return d
}
