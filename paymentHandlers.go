package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/models/reports"
	"github.com/venturatrading/commerce_backend/paymongo"
	"github.com/venturatrading/commerce_backend/utils"
	"github.com/venturatrading/commerce_backend/workflow"
)

func abortWithError(c *gin.Context, err error) {
	logger := config.GetLogger()
	config.LogError(logger, "paymentHandlers.go", c.FullPath(), "request failed", nil, err)
	c.JSON(utils.HTTPStatus(err), gin.H{"error": utils.PublicMessage(err)})
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		user, err := models.AuthenticateUser(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			abortWithError(c, err)
			return
		}

		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}

func submitPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment payload"})
			return
		}

		payment, err := models.SubmitPayment(c.Request.Context(), customerId, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func myPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())
		payments, err := models.GetCustomerPayments(c.Request.Context(), customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func paymentsByStatusHandler(status models.PaymentStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := models.GetPaymentsByStatus(c.Request.Context(), status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

type approvePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func approvePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req approvePaymentRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval payload"})
				return
			}
		}
		reviewerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		payment, invoiceUpdate, err := workflow.ApprovePayment(c.Request.Context(), id, reviewerId, req.Amount)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payment": payment, "invoice": invoiceUpdate})
	}
}

type rejectPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func rejectPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req rejectPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
			return
		}
		reviewerId, _ := utils.GetUserIdFromContext(c.Request.Context())

		payment, err := workflow.RejectPayment(c.Request.Context(), id, reviewerId, req.Reason)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

type appealPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func appealPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req appealPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "appeal reason is required"})
			return
		}
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		payment, err := workflow.AppealPayment(c.Request.Context(), id, customerId, req.Reason)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func reapprovePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		payment, err := workflow.ReapprovePayment(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func deletePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		if err := workflow.HardDeletePayment(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func paymentHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		history, err := models.GetPaymentHistory(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

func createIntentHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment payload"})
			return
		}

		result, err := workflow.CreateGatewayIntent(c.Request.Context(), gw, customerId, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

type createSourceRequest struct {
	models.NewPayment
	SuccessURL string `json:"success_url" binding:"required"`
	FailedURL  string `json:"failed_url" binding:"required"`
}

func createSourceHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		var req createSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source payload"})
			return
		}

		result, err := workflow.CreateGatewaySource(c.Request.Context(), gw, customerId,
			&req.NewPayment, req.SuccessURL, req.FailedURL)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

type createMethodRequest struct {
	Card    paymongo.CardDetails    `json:"card" binding:"required"`
	Billing paymongo.BillingDetails `json:"billing"`
}

func createMethodHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method payload"})
			return
		}

		method, err := gw.CreatePaymentMethod(c.Request.Context(), req.Card, req.Billing)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, method)
	}
}

type attachMethodRequest struct {
	IntentId  string `json:"intent_id" binding:"required"`
	MethodId  string `json:"method_id" binding:"required"`
	ReturnURL string `json:"return_url"`
}

func attachMethodHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req attachMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "intent_id and method_id are required"})
			return
		}

		intent, err := gw.AttachPaymentMethod(c.Request.Context(), req.IntentId, req.MethodId, req.ReturnURL)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

// intentStatusHandler lets the frontend poll the gateway after a redirect
// flow, without waiting for the webhook to land.
func intentStatusHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		intentId := c.Param("intentId")
		if intentId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intentId"})
			return
		}

		intent, err := gw.RetrievePaymentIntent(c.Request.Context(), intentId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": intent.ID, "status": intent.Status()})
	}
}

func myNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())
		notifications, err := models.GetCustomerNotifications(c.Request.Context(), customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

func markNotificationReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		notification, err := models.MarkNotificationRead(c.Request.Context(), customerId, id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, notification)
	}
}

func markAllNotificationsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, _ := utils.GetCustomerIdFromContext(c.Request.Context())

		updated, err := models.MarkAllNotificationsRead(c.Request.Context(), customerId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func reportWindow(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return from, to, false
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return from, to, false
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, true
}

func paymentsReceivedReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportWindow(c)
		if !ok {
			return
		}
		records, err := reports.GetPaymentsReceivedReport(c.Request.Context(), from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func paymentsReceivedExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportWindow(c)
		if !ok {
			return
		}
		records, err := reports.GetPaymentsReceivedReport(c.Request.Context(), from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=payments-received.xlsx")
		if err := reports.WritePaymentsReceivedExcel(c.Writer, records); err != nil {
			config.LogError(config.GetLogger(), "paymentHandlers.go", "paymentsReceivedExcelHandler", "write xlsx", nil, err)
		}
	}
}
