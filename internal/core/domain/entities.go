package domain

// Role represents user role in the system
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole returns false for anything outside the three known roles
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, true
	}
	return "", false
}

// IsStaff is true for staff members and administrators
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped},
	OrderShipped: {OrderDelivered},
}

// CanTransitionTo reports whether the order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCancelled:
		return st, true
	}
	return "", false
}

// ReturnStatus is the lifecycle state of a return request
type ReturnStatus string

const (
	ReturnRequested ReturnStatus = "REQUESTED"
	ReturnApproved  ReturnStatus = "APPROVED"
	ReturnRejected  ReturnStatus = "REJECTED"
	ReturnCompleted ReturnStatus = "COMPLETED"
	ReturnCancelled ReturnStatus = "CANCELLED"
)

// IsActive is false once a return reached a terminal state
func (s ReturnStatus) IsActive() bool {
	return s == ReturnRequested || s == ReturnApproved
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

// CustomRequestStatus tracks a bespoke design request
type CustomRequestStatus string

const (
	CustomRequestPending    CustomRequestStatus = "pending"
	CustomRequestInProgress CustomRequestStatus = "in_progress"
	CustomRequestCompleted  CustomRequestStatus = "completed"
	CustomRequestCancelled  CustomRequestStatus = "cancelled"
)

func ParseCustomRequestStatus(s string) (CustomRequestStatus, bool) {
	switch st := CustomRequestStatus(s); st {
	case CustomRequestPending, CustomRequestInProgress, CustomRequestCompleted, CustomRequestCancelled:
		return st, true
	}
	return "", false
}

// VerificationLabel is the purpose a verification code was issued for
type VerificationLabel string

const (
	LabelRegister      VerificationLabel = "REGISTER"
	LabelResetPassword VerificationLabel = "RESET_PASSWORD"
	LabelChangeEmail   VerificationLabel = "CHANGE_EMAIL"
)

type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaVideo   MediaKind = "video"
	MediaModel3D MediaKind = "model_3d"
)

// Upload size limits per media kind
const (
	MaxImageBytes = 110 * 1024 * 1024
	MaxVideoBytes = 500 * 1024 * 1024
)

type PaymentDirection string

const (
	PaymentCashIn  PaymentDirection = "CASHIN"
	PaymentCashOut PaymentDirection = "CASHOUT"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentFailed     PaymentStatus = "FAILED"
)
