package models

// Role classifies an authenticated actor for workflow purposes.
type Role string

const (
	RoleDeveloper Role = "developer"
	RolePartner   Role = "partner"
	RoleReviewer  Role = "reviewer"
	RoleQA        Role = "qa"
	RoleDevOps    Role = "devops"
	RoleAdmin     Role = "admin"
)

// Principal is the authenticated actor behind a request. It is resolved per
// request by the identity layer and passed explicitly into every engine
// call; the engine reads no ambient session state.
type Principal struct {
	ID   string `json:"id"   validate:"required"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role" validate:"required,oneof=developer partner reviewer qa devops admin"`
}
