package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names one of the known security notifications; Data fills it in.
// Subject/Text/HTML may be set directly for ad-hoc mail instead.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "password_changed", "two_factor_enabled"
	Data     map[string]any `json:"data,omitempty"`
}
