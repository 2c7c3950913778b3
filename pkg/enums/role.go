package enums

import "fmt"

// Role identifies what kind of interaction flow a session belongs to.
type Role int

const (
	RoleCustomer    Role = 1
	RoleSeller      Role = 2
	RoleDegustation Role = 3
)

var roleSlugs = map[Role]string{
	RoleCustomer:    "customer",
	RoleSeller:      "seller",
	RoleDegustation: "degustation",
}

func (r Role) String() string {
	if slug, ok := roleSlugs[r]; ok {
		return slug
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	_, ok := roleSlugs[r]
	return ok
}
