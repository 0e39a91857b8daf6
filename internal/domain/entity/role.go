package entity

// Role conjunto cerrado de roles del sistema.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ParseRole convierte el claim del token en un Role; ok=false si no es reconocido.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// Caller identidad ya autenticada que invoca una operación del núcleo.
type Caller struct {
	UserID string
	Role   Role
}

// CanApproveAdjustments indica si el rol puede aprobar o rechazar ajustes de inventario.
func (c Caller) CanApproveAdjustments() bool {
	switch c.Role {
	case RoleAdmin, RoleManager:
		return true
	case RoleStaff:
		return false
	}
	return false
}

// CanApprove indica si el rol puede aprobar una orden de la clase dada.
func (c Caller) CanApprove(class ApprovalClass) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return class == ApprovalDirect
	case RoleStaff:
		return false
	}
	return false
}
