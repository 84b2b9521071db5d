package penalty

// GrantPenaltyReq carries the admin grant payload. Points and reason are
// both optional; the service applies defaults.
type GrantPenaltyReq struct {
	Points int    `json:"points" validate:"omitempty"`
	Reason string `json:"reason"`
}
