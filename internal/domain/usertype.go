package domain

// User type constants define the allowed roles on the platform.
const (
	UserTypeGuest = "guest"
	UserTypeHost  = "host"
	UserTypeAdmin = "admin"
)

// ValidUserTypes returns the set of valid user types.
func ValidUserTypes() []string {
	return []string{UserTypeGuest, UserTypeHost, UserTypeAdmin}
}

// IsValidUserType checks whether the given string is a valid user type.
func IsValidUserType(t string) bool {
	for _, v := range ValidUserTypes() {
		if v == t {
			return true
		}
	}
	return false
}
