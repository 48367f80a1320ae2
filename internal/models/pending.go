package models

// PendingCashout holds credit already debited from the requester until staff resolve it.
type PendingCashout struct {
	MessageID   string  `json:"message_id"`
	RequesterID string  `json:"requester_id"`
	Credits     float64 `json:"credits"`
	EuroAmount  float64 `json:"euro_amount"`
	Destination string  `json:"destination"`
	RequestedAt int64   `json:"requested_at"`
}

// PendingActions is the on-disk shape of the pending actions document.
type PendingActions struct {
	Transactions map[string]any             `json:"transactions"`
	Cashouts     map[string]*PendingCashout `json:"cashouts"`
}

func NewPendingActions() *PendingActions {
	return &PendingActions{
		Transactions: map[string]any{},
		Cashouts:     map[string]*PendingCashout{},
	}
}

// CommunityChallenge is the server wide challenge currently running, if any.
type CommunityChallenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RewardXP    int    `json:"reward_xp"`
	EndsAt      int64  `json:"ends_at"`
}
