// internal/models/contact.go
package models

// ContactMessage is a message from the public contact form, relayed to the
// operator inbox after bot verification.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}
