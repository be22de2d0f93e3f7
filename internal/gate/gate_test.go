package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tasklink-app/tasklink-web/internal/models"
)

func TestResolveUnauthenticated(t *testing.T) {
	anon := State{}

	for _, v := range []View{ViewHome, ViewAbout, ViewLogin, ViewRegister, ViewRoleSelection, ViewGoogleCallback} {
		res := Resolve(anon, v)
		assert.Equal(t, v, res.View, "public view %s should render as requested", v)
		assert.False(t, res.Redirected)
	}

	for _, v := range []View{ViewDashboard, ViewTasks, ViewProfile, ViewPostTask, View("bogus")} {
		res := Resolve(anon, v)
		assert.Equal(t, ViewLogin, res.View, "gated view %s should bounce to login", v)
		assert.True(t, res.Redirected)
	}
}

func TestResolveEmptyRequestDefaultsToHome(t *testing.T) {
	res := Resolve(State{}, "")
	assert.Equal(t, ViewHome, res.View)
	assert.False(t, res.Redirected)
}

func TestResolveRolelessForcedToRoleSelection(t *testing.T) {
	s := State{Authenticated: true}

	res := Resolve(s, ViewDashboard)
	assert.Equal(t, ViewRoleSelection, res.View)
	assert.True(t, res.Redirected)

	// already there: same view, not a redirect
	res = Resolve(s, ViewRoleSelection)
	assert.Equal(t, ViewRoleSelection, res.View)
	assert.False(t, res.Redirected)
}

func TestResolveNeedsCompletionForced(t *testing.T) {
	s := State{Authenticated: true, Role: models.RoleAgent, NeedsCompletion: true}

	for _, v := range []View{ViewDashboard, ViewMainHome, ViewTasks, ViewSettings} {
		res := Resolve(s, v)
		assert.Equal(t, ViewProfileCompletion, res.View)
		assert.True(t, res.Redirected)
	}

	res := Resolve(s, ViewProfileCompletion)
	assert.Equal(t, ViewProfileCompletion, res.View)
	assert.False(t, res.Redirected)
}

func TestResolveEntryViewsRedirectWhenSignedIn(t *testing.T) {
	s := State{Authenticated: true, Role: models.RoleAgent}

	for _, v := range []View{ViewLogin, ViewRegister, ViewHome, ViewRoleSelection, ViewGoogleCallback, ViewProfileCompletion} {
		res := Resolve(s, v)
		assert.Equal(t, ViewMainHome, res.View, "entry view %s should redirect home", v)
		assert.True(t, res.Redirected)
	}
}

func TestResolveCapabilities(t *testing.T) {
	agent := State{Authenticated: true, Role: models.RoleAgent}
	enterprise := State{Authenticated: true, Role: models.RoleEnterprise}
	admin := State{Authenticated: true, Role: models.RoleAdmin}

	// agent owns my-applications, not the posting surface
	res := Resolve(agent, ViewMyApplications)
	assert.Equal(t, ViewMyApplications, res.View)
	assert.False(t, res.Unauthorized)

	res = Resolve(agent, ViewPostTask)
	assert.Equal(t, ViewPostTask, res.View)
	assert.True(t, res.Unauthorized)
	assert.False(t, res.Redirected, "unauthorized renders inline, never redirects")

	// enterprise owns the posting surface, not my-applications
	res = Resolve(enterprise, ViewPostTask)
	assert.False(t, res.Unauthorized)
	res = Resolve(enterprise, ViewMyTasks)
	assert.False(t, res.Unauthorized)
	res = Resolve(enterprise, ViewMyApplications)
	assert.True(t, res.Unauthorized)

	// admin gets shared views only
	res = Resolve(admin, ViewDashboard)
	assert.False(t, res.Unauthorized)
	res = Resolve(admin, ViewPostTask)
	assert.True(t, res.Unauthorized)
}

func TestResolveSharedViews(t *testing.T) {
	s := State{Authenticated: true, Role: models.RoleEnterprise}
	for _, v := range []View{ViewMainHome, ViewDashboard, ViewTasks, ViewPaymentHistory, ViewProfile, ViewNotifications, ViewSettings, ViewAbout, ViewContact} {
		res := Resolve(s, v)
		assert.Equal(t, v, res.View)
		assert.False(t, res.Redirected)
		assert.False(t, res.Unauthorized)
	}
}

func TestResolveUnknownView(t *testing.T) {
	s := State{Authenticated: true, Role: models.RoleAgent}
	res := Resolve(s, View("no-such-view"))
	assert.Equal(t, ViewNotFound, res.View)
	assert.True(t, res.Redirected)
}

func TestResolveAuthErrorHidesChrome(t *testing.T) {
	res := Resolve(State{AuthError: true}, ViewRoleSelection)
	assert.True(t, res.HideChrome)

	res = Resolve(State{Authenticated: true, Role: models.RoleAgent, AuthError: true}, ViewDashboard)
	assert.True(t, res.HideChrome)

	res = Resolve(State{}, ViewHome)
	assert.False(t, res.HideChrome)
}
