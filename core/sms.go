package core

type (
	// SMSMessage is a single text message to one or more mobile numbers
	// (comma-separated, per the DoIT gateway contract).
	SMSMessage struct {
		Mobile  string
		Message string
	}

	// SMSService is any service that can send text messages.
	SMSService interface {
		// SendMessages sends messages concurrently; delivery failures are
		// logged, never returned.
		SendMessages(messages ...*SMSMessage)
	}

	// BulkSMSService sends a single message to many recipients synchronously;
	// delivery failures are returned to the caller.
	BulkSMSService interface {
		SendBulk(mobiles []string, message string) error
	}
)

func (m *SMSMessage) HasRecipients() bool { return m.Mobile != "" }
func (m *SMSMessage) HasContent() bool    { return m.Message != "" }
