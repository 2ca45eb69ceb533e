package constants

// Static route constants
const (
	PublicRoute          = "/"
	LoginRoute           = "/login"
	DashboardRoute       = "/dashboard"
	BillingRoute         = "/billing"
	BillingConnectRoute  = "/billing/connect"
	BillingCallbackRoute = "/billing/connect/callback"
)
