package cache

// Key builders. All order listings share the "orders:" prefix so a single
// DeletePrefix call invalidates every role's view after a mutation.

// OrdersKey caches the role-scoped order listing for one user.
func OrdersKey(role, userID string) string { return "orders:" + role + ":" + userID }

// OrdersPrefix is the invalidation prefix covering all order listings.
const OrdersPrefix = "orders:"

// NotificationsKey caches one user's notification feed.
func NotificationsKey(userID string) string { return "notifications:" + userID }

// NotificationsPrefix is the invalidation prefix covering all cached feeds.
const NotificationsPrefix = "notifications:"

// Fixed keys for configuration-shaped values.
const (
	PricingConfigKey   = "pricing:config"
	TemplatesKey       = "templates:notifications"
	SuperWorkerFeesKey = "fees:super_workers"
	AgentFeesKey       = "fees:agents"
)
