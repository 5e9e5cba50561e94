package domain

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an account that can sign in and own customers.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}
