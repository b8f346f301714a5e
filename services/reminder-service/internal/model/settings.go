package model

// NotificationSettings is the singleton configuration row maintained by the
// salon web app. This service only reads it.
type NotificationSettings struct {
	ID int64

	SMSEnabled     bool
	NetgsmUser     string
	NetgsmPassword string
	NetgsmHeader   string

	EmailEnabled bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
}

// SMSConfigured reports whether the Netgsm credentials required for a real
// send are all present.
func (s NotificationSettings) SMSConfigured() bool {
	return s.NetgsmUser != "" && s.NetgsmPassword != "" && s.NetgsmHeader != ""
}

// EmailConfigured reports whether the SMTP credentials required for a real
// send are all present.
func (s NotificationSettings) EmailConfigured() bool {
	return s.SMTPHost != "" && s.SMTPUser != "" && s.SMTPPass != ""
}
