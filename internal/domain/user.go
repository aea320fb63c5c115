package domain

type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// Session pairs the opaque backend token with the user it was issued to.
type Session struct {
	Token string
	User  User
}
