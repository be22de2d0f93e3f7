package models

// Server-owned entities, read-mostly through the upstream client. The gateway
// never mutates these locally beyond forwarding the last server response.

type Task struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Budget         float64  `json:"budget"`
	Duration       string   `json:"duration"`
	Skills         []string `json:"skills,omitempty"`
	RequiredProofs []string `json:"requiredProofs,omitempty"`
	Status         string   `json:"status"`
	CreatedBy      string   `json:"createdBy"`
	AssignedTo     []string `json:"assignedTo,omitempty"`
	Deadline       string   `json:"deadline,omitempty"`
	CreatedAt      string   `json:"createdAt"`
}

type Application struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	AgentID   string `json:"agentId"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type Payment struct {
	ID             string  `json:"id"`
	TaskID         string  `json:"taskId"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	Proof          string  `json:"proof,omitempty"`
	TransactionRef string  `json:"transactionRef,omitempty"`
	Status         string  `json:"status"`
	PaidAt         string  `json:"paidAt,omitempty"`
	ConfirmedAt    string  `json:"confirmedAt,omitempty"`
	DisputeReason  string  `json:"disputeReason,omitempty"`
}

type Rating struct {
	ID         string  `json:"id"`
	TaskID     string  `json:"taskId"`
	FromUserID string  `json:"fromUserId"`
	ToUserID   string  `json:"toUserId"`
	Rating     float64 `json:"rating"`
	Comment    string  `json:"comment,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}
