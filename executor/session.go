package executor

import "github.com/thisisjab/herdcomp/fault"

// Session identifies the caller of a command. Every backend call is scoped to
// TenantID.
type Session struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

func (s Session) validate() error {
	if s.UserID == "" {
		return fault.New(fault.AuthCode, "Authentication required")
	}

	if s.TenantID == "" {
		return fault.New(fault.AuthCode, "No tenant associated with user")
	}

	return nil
}
