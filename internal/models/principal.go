package models

// Dashboard is one of the front-end surfaces used to scope feature flags.
type Dashboard string

const (
	DashboardAdmin      Dashboard = "admin"
	DashboardDealer     Dashboard = "dealer"
	DashboardSeller     Dashboard = "seller"
	DashboardAdvertiser Dashboard = "advertiser"
	DashboardPublic     Dashboard = "public"
)

func ParseDashboard(raw string) (Dashboard, bool) {
	switch d := Dashboard(raw); d {
	case DashboardAdmin, DashboardDealer, DashboardSeller, DashboardAdvertiser, DashboardPublic:
		return d, true
	default:
		return "", false
	}
}

// Principal is the identity resolved for a single request. It is rebuilt on
// every request and never stored.
type Principal struct {
	UserID    string
	Email     string
	Role      UserRole
	TenantID  string // empty for platform admins
	DealerID  string // only set for sellers
	SessionID string
}

// NewPrincipal builds a Principal from a stored user. It fails when the
// stored role is outside the closed role set.
func NewPrincipal(user User, sessionID string) (Principal, bool) {
	role, ok := ParseUserRole(user.Role)
	if !ok || user.ID == "" {
		return Principal{}, false
	}

	p := Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      role,
		SessionID: sessionID,
	}
	if user.TenantID != nil && role != UserRoleAdmin {
		p.TenantID = *user.TenantID
	}
	if user.DealerID != nil && role == UserRoleSeller {
		p.DealerID = *user.DealerID
	}
	return p, true
}
