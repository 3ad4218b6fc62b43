package domain

// Roles a staff user can hold
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID       uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	Username string    `gorm:"unique;not null" json:"username"`            // Unique username
	Password string    `gorm:"not null" json:"-"`                          // Hashed password
	Role     string    `gorm:"default:user" json:"role"`                   // Role: user or admin
	Accounts []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"` // Accounts owned by the user
}
