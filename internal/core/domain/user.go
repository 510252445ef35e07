package domain

// UserRole distinguishes administrators (who see all transfers) from regular
// requesters/approvers.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User is an actor in the approval chain. Level is the actor's position in
// the sequential sign-off chain (0 for pure requesters).
type User struct {
	UserID       string   `json:"userID"` // Primary Key (UUID)
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	Level        int      `json:"level"`
	PasswordHash string   `json:"-"`
	AuditFields
}
