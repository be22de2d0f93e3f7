package models

// User is the authenticated identity as the upstream API serializes it.
// Role-specific fields are flat on purpose: the upstream returns one user
// object whatever the role, and a closed Role variant plus the capability
// table replaces per-field downcasting.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`

	ProfileCompleted bool   `json:"profileCompleted"`
	Avatar           string `json:"avatar,omitempty"`
	ProfilePicture   string `json:"profilePicture,omitempty"`
	Location         string `json:"location,omitempty"`
	Phone            string `json:"phone,omitempty"`

	// agent
	Bio            string   `json:"bio,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	PaymentMethod  string   `json:"paymentMethod,omitempty"`
	PaymentNumber  string   `json:"paymentNumber,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	CompletedTasks int      `json:"completedTasks,omitempty"`

	// enterprise
	CompanyName string `json:"companyName,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	PostedTasks int    `json:"postedTasks,omitempty"`

	CreatedAt string `json:"createdAt,omitempty"`
}

// MergeUser overlays a fresh upstream identity on a base one: overlay fields
// win, base fills what the upstream left blank. Mirrors the last-response-wins
// rule: no conflict resolution beyond this.
func MergeUser(base, overlay *User) *User {
	if overlay == nil {
		if base == nil {
			return nil
		}
		cp := *base
		return &cp
	}
	merged := *overlay
	if base != nil {
		if merged.ID == "" {
			merged.ID = base.ID
		}
		if merged.Name == "" {
			merged.Name = base.Name
		}
		if merged.Email == "" {
			merged.Email = base.Email
		}
		if merged.Role == "" {
			merged.Role = base.Role
		}
		if merged.Avatar == "" {
			merged.Avatar = base.Avatar
		}
		if merged.ProfilePicture == "" {
			merged.ProfilePicture = base.ProfilePicture
		}
	}
	return &merged
}

// NeedsCompletion reports whether the profile wizard must be forced: role is
// set, profileCompleted is false and the role's key fields are still empty.
func (u *User) NeedsCompletion() bool {
	if u == nil || !u.Role.Valid() || u.ProfileCompleted {
		return false
	}
	switch u.Role {
	case RoleAgent:
		return u.Location == "" && u.Bio == ""
	case RoleEnterprise:
		return u.CompanyName == "" && u.Description == ""
	}
	return false
}
