package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xadn01/finnepal/internal/events"
	"github.com/xadn01/finnepal/internal/handler"
	"github.com/xadn01/finnepal/internal/middleware"
	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/pkg/database"
	"github.com/xadn01/finnepal/pkg/jwtutil"
	"github.com/xadn01/finnepal/pkg/logger"
	"github.com/xadn01/finnepal/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting finnepal server...", cfg.LogConfig()...)

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	handler.InitAuthHandler(&cfg.JWT)
	handler.InitAttachmentHandler(&cfg.Storage)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize the event publisher; without brokers events are discarded
	events.Init(&cfg.Kafka)
	defer events.Close()

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(middleware.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.RefreshToken)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.POST("/auth/logout", handler.Logout)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)

	// Tenant management - doesn't require tenant context
	tenants := api.Group("/tenants")
	tenants.POST("", handler.CreateTenant)
	tenants.GET("", handler.ListUserTenants)
	tenants.GET("/:id", handler.GetTenant)
	tenants.POST("/switch", handler.SwitchTenant)
	tenants.POST("/default", handler.SetDefaultTenant)

	// Tenant user management - requires tenant context
	tenantUsers := api.Group("/tenant-users")
	tenantUsers.Use(middleware.RequireTenantContext)
	tenantUsers.POST("", handler.AddUserToTenant)
	tenantUsers.DELETE("/:tenant_id/:user_id", handler.RemoveUserFromTenant)

	// Tenant settings - requires tenant context
	settings := api.Group("/tenant-settings")
	settings.Use(middleware.RequireTenantContext)
	settings.GET("", handler.GetTenantSettings)
	settings.PATCH("", handler.UpdateTenantSettings)

	// Chart of accounts
	accounts := api.Group("/accounts")
	accounts.Use(middleware.RequireTenantContext)
	accounts.POST("", handler.CreateAccount)
	accounts.GET("", handler.ListAccounts)
	accounts.GET("/:id", handler.GetAccount)
	accounts.PUT("/:id", handler.UpdateAccount)
	accounts.DELETE("/:id", handler.DeleteAccount)
	accounts.GET("/:id/ledger", handler.GetAccountLedger)
	accounts.GET("/:id/ledger/xlsx", handler.ExportAccountLedgerXLSX)

	// Journal entries
	journals := api.Group("/journal-entries")
	journals.Use(middleware.RequireTenantContext)
	journals.POST("", handler.CreateJournalEntry)
	journals.GET("", handler.ListJournalEntries)
	journals.GET("/:id", handler.GetJournalEntry)
	journals.PUT("/:id", handler.UpdateJournalEntry)
	journals.DELETE("/:id", handler.DeleteJournalEntry)
	journals.POST("/:id/post", handler.PostJournalEntry)
	journals.POST("/:id/void", handler.VoidJournalEntry)

	// Customers
	customers := api.Group("/customers")
	customers.Use(middleware.RequireTenantContext)
	customers.POST("", handler.CreateCustomer)
	customers.GET("", handler.ListCustomers)
	customers.GET("/:id", handler.GetCustomer)
	customers.PUT("/:id", handler.UpdateCustomer)
	customers.DELETE("/:id", handler.DeleteCustomer)

	// Vendors
	vendors := api.Group("/vendors")
	vendors.Use(middleware.RequireTenantContext)
	vendors.POST("", handler.CreateVendor)
	vendors.GET("", handler.ListVendors)
	vendors.GET("/:id", handler.GetVendor)
	vendors.PUT("/:id", handler.UpdateVendor)
	vendors.DELETE("/:id", handler.DeleteVendor)

	// Items
	items := api.Group("/items")
	items.Use(middleware.RequireTenantContext)
	items.POST("", handler.CreateItem)
	items.GET("", handler.ListItems)
	items.GET("/:id", handler.GetItem)
	items.PUT("/:id", handler.UpdateItem)
	items.DELETE("/:id", handler.DeleteItem)

	// Invoices
	invoices := api.Group("/invoices")
	invoices.Use(middleware.RequireTenantContext)
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("", handler.ListInvoices)
	invoices.GET("/export/xlsx", handler.ExportInvoicesXLSX)
	invoices.GET("/:id", handler.GetInvoice)
	invoices.PUT("/:id", handler.UpdateInvoice)
	invoices.DELETE("/:id", handler.DeleteInvoice)
	invoices.POST("/:id/send", handler.SendInvoice)
	invoices.POST("/:id/void", handler.VoidInvoice)
	invoices.POST("/:id/payments", handler.RecordInvoicePayment)
	invoices.GET("/:id/payments", handler.ListInvoicePayments)
	invoices.GET("/:id/pdf", handler.InvoicePDF)

	// Bills
	bills := api.Group("/bills")
	bills.Use(middleware.RequireTenantContext)
	bills.POST("", handler.CreateBill)
	bills.GET("", handler.ListBills)
	bills.GET("/export/xlsx", handler.ExportBillsXLSX)
	bills.GET("/:id", handler.GetBill)
	bills.PUT("/:id", handler.UpdateBill)
	bills.DELETE("/:id", handler.DeleteBill)
	bills.POST("/:id/receive", handler.ReceiveBill)
	bills.POST("/:id/void", handler.VoidBill)
	bills.POST("/:id/payments", handler.RecordBillPayment)
	bills.GET("/:id/payments", handler.ListBillPayments)
	bills.GET("/:id/pdf", handler.BillPDF)

	// Dashboard
	dashboard := api.Group("/dashboard")
	dashboard.Use(middleware.RequireTenantContext)
	dashboard.GET("/summary", handler.GetDashboardSummary)
	dashboard.GET("/cashflow", handler.GetCashflow)
	dashboard.GET("/ratios", handler.GetRatios)

	// Financial reports
	reports := api.Group("/reports")
	reports.Use(middleware.RequireTenantContext)
	reports.GET("/trial-balance", handler.GetTrialBalance)
	reports.GET("/trial-balance/xlsx", handler.ExportTrialBalanceXLSX)
	reports.GET("/profit-loss", handler.GetProfitLoss)
	reports.GET("/profit-loss/xlsx", handler.ExportProfitLossXLSX)
	reports.GET("/balance-sheet", handler.GetBalanceSheet)
	reports.GET("/balance-sheet/xlsx", handler.ExportBalanceSheetXLSX)

	// Attachments
	attachments := api.Group("/attachments")
	attachments.Use(middleware.RequireTenantContext)
	attachments.POST("", handler.UploadAttachment)
	attachments.GET("", handler.ListAttachments)
	attachments.GET("/:id/download", handler.DownloadAttachment)
	attachments.DELETE("/:id", handler.DeleteAttachment)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
