// Package gate decides which view renders for a given session state: one
// transition function plus one capability table keyed by role. It performs no
// I/O, so every routing rule is testable in isolation.
package gate

import "github.com/tasklink-app/tasklink-web/internal/models"

type View string

const (
	ViewHome              View = "home"
	ViewAbout             View = "about"
	ViewContact           View = "contact"
	ViewLogin             View = "login"
	ViewRegister          View = "register"
	ViewRoleSelection     View = "role-selection"
	ViewGoogleCallback    View = "google-callback"
	ViewMainHome          View = "main-home"
	ViewDashboard         View = "dashboard"
	ViewTasks             View = "tasks"
	ViewPostTask          View = "post-task"
	ViewMyTasks           View = "my-tasks"
	ViewMyApplications    View = "my-applications"
	ViewPaymentHistory    View = "payment-history"
	ViewProfile           View = "profile"
	ViewNotifications     View = "notifications"
	ViewSettings          View = "settings"
	ViewProfileCompletion View = "profile-completion"
	ViewNotFound          View = "not-found"
)

// State is the minimal session snapshot the gate needs. Deriving it from the
// session record is the caller's job; Resolve itself touches nothing.
type State struct {
	Authenticated   bool
	Role            models.Role
	NeedsCompletion bool
	AuthError       bool
}

type Resolution struct {
	View View
	// Redirected marks a forced transition away from the requested view.
	Redirected bool
	// Unauthorized renders the requested view as an inline placeholder
	// instead of redirecting.
	Unauthorized bool
	// HideChrome suppresses the navigation bar while an auth-error marker is
	// pending.
	HideChrome bool
}

// publicViews are reachable without authentication.
var publicViews = map[View]bool{
	ViewHome:           true,
	ViewAbout:          true,
	ViewRegister:       true,
	ViewRoleSelection:  true,
	ViewGoogleCallback: true,
	ViewLogin:          true,
}

// shared views every authenticated, completed role can reach.
var sharedViews = map[View]bool{
	ViewMainHome:       true,
	ViewAbout:          true,
	ViewContact:        true,
	ViewDashboard:      true,
	ViewTasks:          true,
	ViewPaymentHistory: true,
	ViewProfile:        true,
	ViewNotifications:  true,
	ViewSettings:       true,
}

// capabilities is the single role-dispatch point. A view missing here for a
// role renders the unauthorized placeholder.
var capabilities = map[models.Role]map[View]bool{
	models.RoleAgent: {
		ViewMyApplications: true,
	},
	models.RoleEnterprise: {
		ViewPostTask: true,
		ViewMyTasks:  true,
	},
	models.RoleAdmin: {},
}

func known(v View) bool {
	if publicViews[v] || sharedViews[v] {
		return true
	}
	for _, caps := range capabilities {
		if caps[v] {
			return true
		}
	}
	return v == ViewProfileCompletion
}

// Allowed reports whether a completed profile of this role may render the
// view.
func Allowed(role models.Role, v View) bool {
	if sharedViews[v] {
		return true
	}
	return capabilities[role][v]
}

// Resolve maps (session state, requested view) to the view that actually
// renders. It is total: every input lands somewhere.
func Resolve(s State, requested View) Resolution {
	if requested == "" {
		requested = ViewHome
	}

	if !s.Authenticated {
		if publicViews[requested] {
			return Resolution{View: requested, HideChrome: s.AuthError}
		}
		return Resolution{View: ViewLogin, Redirected: true, HideChrome: s.AuthError}
	}

	// Authenticated but roleless accounts cannot exist past role selection.
	if !s.Role.Valid() {
		return Resolution{
			View:       ViewRoleSelection,
			Redirected: requested != ViewRoleSelection,
			HideChrome: s.AuthError,
		}
	}

	if s.NeedsCompletion {
		return Resolution{
			View:       ViewProfileCompletion,
			Redirected: requested != ViewProfileCompletion,
			HideChrome: s.AuthError,
		}
	}

	// Signed-in users never see the entry views again.
	switch requested {
	case ViewLogin, ViewRegister, ViewHome, ViewRoleSelection, ViewGoogleCallback, ViewProfileCompletion:
		return Resolution{View: ViewMainHome, Redirected: true, HideChrome: s.AuthError}
	}

	if !known(requested) {
		return Resolution{View: ViewNotFound, Redirected: true, HideChrome: s.AuthError}
	}

	if !Allowed(s.Role, requested) {
		return Resolution{View: requested, Unauthorized: true, HideChrome: s.AuthError}
	}

	return Resolution{View: requested, HideChrome: s.AuthError}
}
