package models

// User is the public view of an account. It never carries credentials.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserRecord is the stored account, including the password hash.
type UserRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
}

// Public strips the credential from the record.
func (r UserRecord) Public() User {
	return User{ID: r.ID, Email: r.Email, Name: r.Name}
}
