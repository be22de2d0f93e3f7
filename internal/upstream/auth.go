package upstream

import (
	"context"

	"github.com/tasklink-app/tasklink-web/internal/models"
)

type AuthAPI struct {
	Client *Client
}

type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthResult bundles the identity and bearer token the upstream returns from
// login, register and Google verification.
type AuthResult struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	IsNewUser bool        `json:"isNewUser"`
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	env, err := a.Client.Post(ctx, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	return &res, nil
}

func (a *AuthAPI) Register(ctx context.Context, payload RegisterPayload) (*AuthResult, error) {
	env, err := a.Client.Post(ctx, "/auth/register", "", payload)
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	return &res, nil
}

func (a *AuthAPI) Logout(ctx context.Context, token string) error {
	_, err := a.Client.Post(ctx, "/auth/logout", token, nil)
	return err
}

func (a *AuthAPI) Me(ctx context.Context, token string) (*models.User, error) {
	env, err := a.Client.Get(ctx, "/auth/me", token)
	if err != nil {
		return nil, err
	}
	var res struct {
		User models.User `json:"user"`
	}
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	return &res.User, nil
}

// GoogleSuccess exchanges the token carried by the provider redirect for a
// verified identity. The upstream decides whether the account is new.
func (a *AuthAPI) GoogleSuccess(ctx context.Context, token string) (*AuthResult, error) {
	env, err := a.Client.Post(ctx, "/auth/google/success", "", map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	if res.Token == "" {
		res.Token = token
	}
	return &res, nil
}

func (a *AuthAPI) CompleteProfile(ctx context.Context, token string, payload map[string]any) (*models.User, error) {
	env, err := a.Client.Post(ctx, "/auth/complete-profile", token, payload)
	if err != nil {
		return nil, err
	}
	var res struct {
		User models.User `json:"user"`
	}
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	return &res.User, nil
}
