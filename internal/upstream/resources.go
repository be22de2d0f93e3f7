package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tasklink-app/tasklink-web/internal/models"
)

// ListQuery is the common page/limit/status triple most list endpoints accept.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
}

func (q ListQuery) encode(extra map[string]string) string {
	v := url.Values{}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	for k, val := range extra {
		if val != "" {
			v.Set(k, val)
		}
	}
	return "?" + v.Encode()
}

type TasksAPI struct {
	Client *Client
}

func (t *TasksAPI) List(ctx context.Context, token string, filters map[string]string) (*Envelope, error) {
	qs := ""
	if len(filters) > 0 {
		v := url.Values{}
		for k, val := range filters {
			if val != "" {
				v.Set(k, val)
			}
		}
		qs = "?" + v.Encode()
	}
	return t.Client.Get(ctx, "/tasks"+qs, token)
}

func (t *TasksAPI) Get(ctx context.Context, token, id string) (*Envelope, error) {
	return t.Client.Get(ctx, "/tasks/"+url.PathEscape(id), token)
}

func (t *TasksAPI) Create(ctx context.Context, token string, task any) (*Envelope, error) {
	return t.Client.Post(ctx, "/tasks", token, task)
}

func (t *TasksAPI) Update(ctx context.Context, token, id string, task any) (*Envelope, error) {
	return t.Client.Put(ctx, "/tasks/"+url.PathEscape(id), token, task)
}

func (t *TasksAPI) Delete(ctx context.Context, token, id string) (*Envelope, error) {
	return t.Client.Delete(ctx, "/tasks/"+url.PathEscape(id), token)
}

func (t *TasksAPI) Mine(ctx context.Context, token string, q ListQuery) (*Envelope, error) {
	return t.Client.Get(ctx, "/tasks/my-tasks"+q.encode(nil), token)
}

func (t *TasksAPI) Assigned(ctx context.Context, token string, q ListQuery) (*Envelope, error) {
	return t.Client.Get(ctx, "/tasks/assigned-tasks"+q.encode(nil), token)
}

type ApplicationsAPI struct {
	Client *Client
}

func (a *ApplicationsAPI) Create(ctx context.Context, token string, application any) (*Envelope, error) {
	return a.Client.Post(ctx, "/applications", token, application)
}

func (a *ApplicationsAPI) Mine(ctx context.Context, token string, q ListQuery) (*Envelope, error) {
	return a.Client.Get(ctx, "/applications/my-applications"+q.encode(nil), token)
}

func (a *ApplicationsAPI) ForTask(ctx context.Context, token, taskID string, q ListQuery) (*Envelope, error) {
	return a.Client.Get(ctx, "/applications/task/"+url.PathEscape(taskID)+q.encode(nil), token)
}

func (a *ApplicationsAPI) Get(ctx context.Context, token, id string) (*Envelope, error) {
	return a.Client.Get(ctx, "/applications/"+url.PathEscape(id), token)
}

func (a *ApplicationsAPI) UpdateStatus(ctx context.Context, token, id, status, notes string) (*Envelope, error) {
	return a.Client.Put(ctx, "/applications/"+url.PathEscape(id)+"/status", token, map[string]string{
		"status": status,
		"notes":  notes,
	})
}

func (a *ApplicationsAPI) Delete(ctx context.Context, token, id string) (*Envelope, error) {
	return a.Client.Delete(ctx, "/applications/"+url.PathEscape(id), token)
}

type PaymentsAPI struct {
	Client *Client
}

func (p *PaymentsAPI) List(ctx context.Context, token string, q ListQuery, method string) (*Envelope, error) {
	return p.Client.Get(ctx, "/payments"+q.encode(map[string]string{"method": method}), token)
}

func (p *PaymentsAPI) Get(ctx context.Context, token, id string) (*Envelope, error) {
	return p.Client.Get(ctx, "/payments/"+url.PathEscape(id), token)
}

// Declare records a user-declared payment claim. Settlement never happens
// here; the upstream only stores what the user says they paid.
func (p *PaymentsAPI) Declare(ctx context.Context, token string, payment any) (*Envelope, error) {
	return p.Client.Post(ctx, "/payments", token, payment)
}

func (p *PaymentsAPI) Confirm(ctx context.Context, token, id string) (*Envelope, error) {
	return p.Client.Put(ctx, "/payments/"+url.PathEscape(id)+"/confirm", token, nil)
}

func (p *PaymentsAPI) Dispute(ctx context.Context, token, id, reason string) (*Envelope, error) {
	return p.Client.Put(ctx, "/payments/"+url.PathEscape(id)+"/dispute", token, map[string]string{"reason": reason})
}

type NotificationsAPI struct {
	Client *Client
}

func (n *NotificationsAPI) List(ctx context.Context, token string, q ListQuery) (*Envelope, error) {
	return n.Client.Get(ctx, "/notifications"+q.encode(nil), token)
}

// Recent returns decoded notifications for the realtime poller.
func (n *NotificationsAPI) Recent(ctx context.Context, token string) ([]models.Notification, error) {
	env, err := n.List(ctx, token, ListQuery{Limit: 20})
	if err != nil {
		return nil, err
	}
	var res struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := env.Decode(&res); err != nil {
		return nil, &Error{Message: "Erreur API"}
	}
	return res.Notifications, nil
}

func (n *NotificationsAPI) MarkRead(ctx context.Context, token, id string) (*Envelope, error) {
	return n.Client.Put(ctx, "/notifications/"+url.PathEscape(id)+"/read", token, nil)
}

func (n *NotificationsAPI) MarkAllRead(ctx context.Context, token string) (*Envelope, error) {
	return n.Client.Put(ctx, "/notifications/read-all", token, nil)
}

type UsersAPI struct {
	Client *Client
}

func (u *UsersAPI) Get(ctx context.Context, token, id string) (*Envelope, error) {
	return u.Client.Get(ctx, "/users/"+url.PathEscape(id), token)
}

func (u *UsersAPI) Update(ctx context.Context, token string, fields any) (*Envelope, error) {
	return u.Client.Put(ctx, "/users/me", token, fields)
}

func (u *UsersAPI) Agents(ctx context.Context, token string, q ListQuery, filters map[string]string) (*Envelope, error) {
	return u.Client.Get(ctx, "/users/agents"+q.encode(filters), token)
}

func (u *UsersAPI) Enterprises(ctx context.Context, token string, q ListQuery, filters map[string]string) (*Envelope, error) {
	return u.Client.Get(ctx, "/users/enterprises"+q.encode(filters), token)
}

func (u *UsersAPI) Tasks(ctx context.Context, token, id string, q ListQuery) (*Envelope, error) {
	return u.Client.Get(ctx, "/users/"+url.PathEscape(id)+"/tasks"+q.encode(nil), token)
}

func (u *UsersAPI) Ratings(ctx context.Context, token, id string, q ListQuery) (*Envelope, error) {
	return u.Client.Get(ctx, "/users/"+url.PathEscape(id)+"/ratings"+q.encode(nil), token)
}

type RatingsAPI struct {
	Client *Client
}

func (r *RatingsAPI) Create(ctx context.Context, token string, rating any) (*Envelope, error) {
	return r.Client.Post(ctx, "/ratings", token, rating)
}

func (r *RatingsAPI) List(ctx context.Context, token string, q ListQuery, filters map[string]string) (*Envelope, error) {
	return r.Client.Get(ctx, "/ratings"+q.encode(filters), token)
}

func (r *RatingsAPI) Get(ctx context.Context, token, id string) (*Envelope, error) {
	return r.Client.Get(ctx, "/ratings/"+url.PathEscape(id), token)
}

func (r *RatingsAPI) Update(ctx context.Context, token, id string, rating any) (*Envelope, error) {
	return r.Client.Put(ctx, "/ratings/"+url.PathEscape(id), token, rating)
}

func (r *RatingsAPI) Delete(ctx context.Context, token, id string) (*Envelope, error) {
	return r.Client.Delete(ctx, "/ratings/"+url.PathEscape(id), token)
}

func (r *RatingsAPI) Statistics(ctx context.Context, token, userID string) (*Envelope, error) {
	return r.Client.Get(ctx, "/ratings/statistics?userId="+url.QueryEscape(userID), token)
}
