package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/scootershare/customer"
)

func (a *API) getCustomerHandler(c *gin.Context) {
	cust, err := a.cr.Get(c, c.Param("email"))
	if err != nil {
		a.customerError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// getLoginDetailsHandler returns the stored credential hash. The wider
// system transmits credentials in clear JSON on a private network; this
// is a known limitation of the protocol, not something this tier can
// repair.
func (a *API) getLoginDetailsHandler(c *gin.Context) {
	cust, err := a.cr.Get(c, c.Param("email"))
	if err != nil {
		a.customerError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer.LoginDetails{
		Email:    cust.Email,
		Password: cust.PasswordHash,
		Role:     cust.Role,
	})
}

type registerCustomerRequest struct {
	Email        string  `json:"email" binding:"required"`
	PasswordHash string  `json:"passwordHash" binding:"required"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	PhoneNo      string  `json:"phoneNo"`
	Funds        float64 `json:"funds"`
}

func (a *API) registerCustomerHandler(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust := &customer.Customer{
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNo:      req.PhoneNo,
		Funds:        req.Funds,
		Role:         customer.RoleCustomer,
	}
	if err := a.cr.Register(c, cust); err != nil {
		if errors.Is(err, customer.ErrExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "customer already registered"})
			return
		}
		a.internalError(c, "failed to register customer", err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (a *API) deleteCustomerHandler(c *gin.Context) {
	if err := a.cr.Delete(c, c.Param("email")); err != nil {
		a.customerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
}

type updateFundsRequest struct {
	Funds float64 `json:"funds"`
}

func (a *API) updateCustomerFundsHandler(c *gin.Context) {
	var req updateFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust, err := a.cr.UpdateFunds(c, c.Param("email"), req.Funds)
	if err != nil {
		a.customerError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (a *API) getAllCustomersHandler(c *gin.Context) {
	customers, err := a.cr.GetAll(c)
	if err != nil {
		a.internalError(c, "failed to get customers", err)
		return
	}
	if customers == nil {
		customers = []customer.Customer{}
	}
	c.JSON(http.StatusOK, customers)
}

type updateCustomerDetailsRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	PhoneNo   string `json:"phoneNo"`
}

func (a *API) updateCustomerDetailsHandler(c *gin.Context) {
	var req updateCustomerDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust, err := a.cr.UpdateDetails(c, c.Param("email"), req.FirstName, req.LastName, req.PhoneNo)
	if err != nil {
		a.customerError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (a *API) getEngineerEmailsHandler(c *gin.Context) {
	emails, err := a.cr.EngineerEmails(c)
	if err != nil {
		a.internalError(c, "failed to get engineer emails", err)
		return
	}
	if emails == nil {
		emails = []string{}
	}
	c.JSON(http.StatusOK, emails)
}

func (a *API) customerError(c *gin.Context, err error) {
	if errors.Is(err, customer.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	a.internalError(c, "customer operation failed", err)
}
