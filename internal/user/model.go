package user

import "time"

type User struct {
	ID                  int        `db:"id" json:"id"`
	TenantID            *int       `db:"tenant_id" json:"tenant_id,omitempty"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                string     `db:"role" json:"role"`
	MembershipType      *string    `db:"membership_type" json:"membership_type,omitempty"`
	MembershipExpiresAt *time.Time `db:"membership_expires_at" json:"membership_expires_at,omitempty"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// HasActiveMembership reports whether the member's plan is current. Pay-as-
// you-go plans never expire. Display only; booking admission does not gate
// on membership status.
func (u *User) HasActiveMembership() bool {
	if u.MembershipType != nil {
		switch *u.MembershipType {
		case "free", "day_pass", "single_drop_in":
			return true
		}
	}

	return u.MembershipExpiresAt != nil && u.MembershipExpiresAt.After(time.Now())
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type ProfileResponse struct {
	User                User `json:"user"`
	HasActiveMembership bool `json:"has_active_membership"`
}
