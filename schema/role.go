package schema

type UserRole string

const (
	RoleRequester UserRole = "requester"
	RoleHelper    UserRole = "helper"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleRequester, RoleHelper, RoleAdmin:
		return true
	}
	return false
}

// CanRequest reports whether the role may post help requests
func (r UserRole) CanRequest() bool {
	return r == RoleRequester || r == RoleAdmin
}

// CanHelp reports whether the role may go active and answer offers
func (r UserRole) CanHelp() bool {
	return r == RoleHelper || r == RoleAdmin
}
