// Package api is the persistence tier's HTTP surface: plain JSON CRUD
// over the fleet database, one route group per entity. The hub is its
// only intended consumer; it runs LAN-internal next to the database.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/customer"
	"github.com/semanticallynull/scootershare/fault"
	"github.com/semanticallynull/scootershare/internal/middleware"
	"github.com/semanticallynull/scootershare/internal/o11y"
	"github.com/semanticallynull/scootershare/scooter"
	"github.com/semanticallynull/scootershare/transaction"
)

type API struct {
	r   *gin.Engine
	sr  *scooter.Repository
	bkr *booking.Repository
	cr  *customer.Repository
	tr  *transaction.Repository
	fr  *fault.Repository
}

func New(obs *o11y.Observability, sr *scooter.Repository, bkr *booking.Repository, cr *customer.Repository, tr *transaction.Repository, fr *fault.Repository) *API {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Tracing(),
		middleware.Logging(obs.Logger),
		middleware.Metrics(obs.Registry),
	)

	a := &API{r: r, sr: sr, bkr: bkr, cr: cr, tr: tr, fr: fr}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	bk := r.Group("/booking")
	{
		bk.GET("/active", a.getActiveBookingsHandler)
		bk.GET("/booked-slots", a.getBookedSlotsHandler)
		bk.GET("/customer/:email", a.getCustomerBookingsHandler)
		bk.GET("/scooter/:scooterId", a.getScooterBookingsHandler)
		bk.GET("/:bookingId", a.getBookingHandler)
		bk.POST("", a.createBookingHandler)
		bk.DELETE("/:bookingId", a.cancelBookingHandler)
		bk.PUT("/:bookingId/start", a.startBookingHandler)
		bk.PUT("/:bookingId/complete", a.completeBookingHandler)
		bk.PUT("/:bookingId/calendar", a.setBookingCalendarHandler)
	}

	cu := r.Group("/customer")
	{
		cu.GET("", a.getAllCustomersHandler)
		cu.GET("/engineers/emails", a.getEngineerEmailsHandler)
		cu.GET("/:email", a.getCustomerHandler)
		cu.GET("/:email/login", a.getLoginDetailsHandler)
		cu.POST("", a.registerCustomerHandler)
		cu.DELETE("/:email", a.deleteCustomerHandler)
		cu.PUT("/:email", a.updateCustomerDetailsHandler)
		cu.PUT("/:email/funds", a.updateCustomerFundsHandler)
	}

	sc := r.Group("/scooter")
	{
		sc.GET("", a.getAllScootersHandler)
		sc.GET("/:scooterId", a.getScooterHandler)
		sc.PUT("/:scooterId", a.updateScooterDetailsHandler)
		sc.PUT("/:scooterId/status", a.updateScooterStatusHandler)
		sc.PUT("/:scooterId/location", a.updateScooterLocationHandler)
		sc.PUT("/:scooterId/ip", a.updateScooterIPHandler)
	}

	tx := r.Group("/transaction")
	{
		tx.GET("/customer/:email", a.getCustomerTransactionsHandler)
		tx.GET("/:transactionId", a.getTransactionHandler)
		tx.POST("", a.addTransactionHandler)
	}

	fa := r.Group("/fault")
	{
		fa.GET("/open", a.getOpenFaultsHandler)
		fa.GET("/scooter/:scooterId", a.getScooterFaultHandler)
		fa.GET("/:faultId", a.getFaultHandler)
		fa.PUT("", a.reportFaultHandler)
		fa.PUT("/:faultId/resolve", a.resolveFaultHandler)
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}
