package email

// Sender delivers transactional mail to a single recipient.
type Sender interface {
	Send(to, subject, body string) error
}
