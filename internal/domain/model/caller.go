package model

// Role is the caller's authorization role.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleStaff       Role = "staff"
)

// Caller is the verified identity behind a request.
type Caller struct {
	UserID   string `json:"sub"`
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
}

// Authenticated reports whether an identity was established.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// IsAdmin reports whether the caller may run admin operations.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleTenantAdmin || c.Role == RoleSuperAdmin
}

// CanManage reports whether the caller may act on an event of tenantID.
func (c Caller) CanManage(tenantID string) bool {
	return c.Role == RoleSuperAdmin || (c.TenantID != "" && c.TenantID == tenantID)
}
