package user

// PINs are limited to integers a JSON number (float64) carries exactly, so
// every transport can express every stored PIN.
const (
	MaxPIN = 1 << 53
	MinPIN = -MaxPIN
)

// User is a user record: the identity a login is checked against.
type User struct {
	ID   int64  // ID is the storage identifier, zero for records that were never persisted
	Name string // Name is the unique login name
	PIN  int    // PIN is the numeric secret compared on login
}

// Matches reports whether pin equals the record's PIN.
func (u *User) Matches(pin int) bool {
	return u != nil && u.PIN == pin
}

// ValidPIN reports whether pin lies within [MinPIN, MaxPIN].
func ValidPIN(pin int) bool {
	return int64(pin) >= MinPIN && int64(pin) <= MaxPIN
}
