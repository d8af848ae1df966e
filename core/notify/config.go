package notify

// Config holds configuration for the mail notification.
type Config struct {
	// Address is both the sender and the recipient of notifications.
	Address string `mapstructure:"address" default:""`
	// Password is the SMTP credential for Address.
	Password string `mapstructure:"password" default:""`
	// SMTPHost is the relay host.
	SMTPHost string `mapstructure:"smtp_host" default:"smtp.gmail.com"`
	// SMTPPort is the submission port (STARTTLS).
	SMTPPort int `mapstructure:"smtp_port" default:"587"`
	// Subject is the subject line of notification mails.
	Subject string `mapstructure:"subject" default:"新刊入荷情報"`
}
