package domain

// Action is something a caller may be allowed to do beyond owning a resource
type Action string

const (
	ActionManageCatalog       Action = "catalog:manage"
	ActionModerateFeedback    Action = "feedback:moderate"
	ActionManageCustomRequest Action = "custom_request:manage"
	ActionControlCustomIntake Action = "custom_request:control"
	ActionViewAllOrders       Action = "order:view_all"
	ActionUpdateOrderStatus   Action = "order:update_status"
	ActionReviewReturn        Action = "return:review"
	ActionManageRefund        Action = "refund:manage"
	ActionViewAllPayments     Action = "payment:view_all"
	ActionManageUsers         Action = "user:manage"
)

var staffActions = map[Action]bool{
	ActionManageCatalog:       true,
	ActionModerateFeedback:    true,
	ActionManageCustomRequest: true,
	ActionViewAllOrders:       true,
	ActionUpdateOrderStatus:   true,
	ActionReviewReturn:        true,
	ActionManageRefund:        true,
	ActionViewAllPayments:     true,
}

// Can is the single authorization decision point.
// Customers hold no privileged actions; they act on their own records only.
func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return staffActions[action]
	default:
		return false
	}
}

// CanAccessOwned allows the owner, or anyone holding the action
func CanAccessOwned(role Role, action Action, actorID uint, ownerID *uint) bool {
	if Can(role, action) {
		return true
	}
	return ownerID != nil && *ownerID == actorID
}
