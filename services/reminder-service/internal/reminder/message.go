package reminder

import (
	"fmt"
	"time"
)

// ReminderSubject is the email subject used for every reminder.
const ReminderSubject = "Randevu Hatırlatması"

// ComposeReminder builds the customer-facing reminder text. The appointment
// time is rendered as wall-clock HH:mm in the salon's location, matching
// what the booking confirmation showed the customer.
func ComposeReminder(fullName string, appointmentTime time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	timeStr := appointmentTime.In(loc).Format("15:04")
	return fmt.Sprintf("Sayın %s, randevunuza 30 dakikadan az kaldı! (%s)", fullName, timeStr)
}
