package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/utils"
)

func myInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())
		invoices, err := models.GetCustomerInvoices(c.Request.Context(), customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		invoice, err := models.GetCustomerInvoice(c.Request.Context(), customerId, id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

// recalculateInvoiceHandler is an admin repair tool for invoices whose
// derived columns drifted from the stored amounts.
func recalculateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		update, wasUpdated, err := models.RecalculateInvoice(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice": update, "updated": wasUpdated})
	}
}

func myReceiptsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())
		receipts, err := models.GetCustomerReceipts(c.Request.Context(), customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipts)
	}
}

func getReceiptHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		receipt, err := models.GetPaymentReceipt(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, receipt)
	}
}

func adminNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		notifications, err := models.GetAdminNotifications(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and email are required"})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and role are required"})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}
