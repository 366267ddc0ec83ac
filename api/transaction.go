package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/transaction"
)

func (a *API) getTransactionHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transactionId"})
		return
	}

	t, err := a.tr.Get(c, id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		a.internalError(c, "failed to get transaction", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type addTransactionRequest struct {
	Email      string  `json:"email" binding:"required"`
	Amount     float64 `json:"transactionAmount" binding:"required"`
	OccurredAt string  `json:"transactionDateTime" binding:"required"`
}

func (a *API) addTransactionHandler(c *gin.Context) {
	var req addTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	occurredAt, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transactionDateTime format"})
		return
	}

	t := &transaction.Transaction{
		ID:         uuid.New(),
		Email:      req.Email,
		Amount:     req.Amount,
		OccurredAt: occurredAt,
	}
	if err := a.tr.Add(c, t); err != nil {
		a.internalError(c, "failed to add transaction", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (a *API) getCustomerTransactionsHandler(c *gin.Context) {
	txns, err := a.tr.GetForCustomer(c, c.Param("email"))
	if err != nil {
		a.internalError(c, "failed to get customer transactions", err)
		return
	}
	if txns == nil {
		txns = []transaction.Transaction{}
	}
	c.JSON(http.StatusOK, txns)
}
