package service

import (
	"slices"

	"shiftboard/internal/model"
)

// Permissions granted by the identity provider on top of roles
const (
	PermSchedulePublish = "schedule.publish"
	PermSettingsManage  = "settings.manage"
)

// Caller identity asserted by the identity adapter; trusted as given
type Caller struct {
	UserID      string
	Role        string
	StoreID     string
	Permissions []string
}

// IsAdmin reports the admin role
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// HasPermission reports an explicit grant
func (c Caller) HasPermission(p string) bool { return slices.Contains(c.Permissions, p) }

// CanManageStore admin, the store's manager, or a holder of perm scoped to that store
func (c Caller) CanManageStore(storeID, perm string) bool {
	if c.IsAdmin() {
		return true
	}
	if storeID == "" || c.StoreID != storeID {
		return false
	}
	return c.Role == model.RoleStoreManager || c.HasPermission(perm)
}
