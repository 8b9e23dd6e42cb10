package models

// Actor identifies who is performing a workflow operation. It is resolved by the
// auth layer from the session and passed explicitly into every core operation;
// services never inspect tokens or sessions themselves.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAgent() bool      { return a.Role == RoleAgent }
func (a Actor) IsSubadmin() bool   { return a.Role == RoleSubadmin }
func (a Actor) IsCA() bool         { return a.Role == RoleCA }
func (a Actor) IsSuperadmin() bool { return a.Role == RoleSuperadmin }
