package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type proposalEmailData struct {
	Name  string
	Title string
	Link  string
}

type bookingEmailData struct {
	Name         string
	BusinessName string
	Code         string
	Date         string
	Start        string
}

type refundEmailData struct {
	Name   string
	Amount string
}

type reminderEmailData struct {
	Name         string
	BusinessName string
}
