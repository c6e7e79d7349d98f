package security

// ToolPolicy is a caller-side allow-list over tool names. The extraction
// engine validates names against the registry; the policy decides which of
// those an agent may actually dispatch.
type ToolPolicy struct {
	allowed map[string]bool
}

// NewToolPolicy creates a policy from an allow-list.
// An empty list allows every registered tool.
func NewToolPolicy(allowedTools []string) *ToolPolicy {
	m := make(map[string]bool, len(allowedTools))
	for _, name := range allowedTools {
		m[name] = true
	}
	return &ToolPolicy{allowed: m}
}

// Allows returns true if the tool may be dispatched.
func (p *ToolPolicy) Allows(toolName string) bool {
	if len(p.allowed) == 0 {
		return true // no allowlist = allow all
	}
	return p.allowed[toolName]
}

// UserAllowlist checks whether a chat user may talk to the assistant.
type UserAllowlist struct {
	allowedIDs map[int64]bool
}

// NewUserAllowlist creates an allowlist of user IDs.
// If the list is empty, all users are allowed.
func NewUserAllowlist(allowedIDs []int64) *UserAllowlist {
	m := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		m[id] = true
	}
	return &UserAllowlist{allowedIDs: m}
}

// IsAllowed returns true if the user is authorized.
func (a *UserAllowlist) IsAllowed(userID int64) bool {
	if len(a.allowedIDs) == 0 {
		return true
	}
	return a.allowedIDs[userID]
}
