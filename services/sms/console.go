package smssvc

import (
	"log"
	"strings"
	"sync"

	"github.com/seepmela/mela/core"
)

var (
	SentMessages = make([]core.SMSMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	disableOutput bool
}

var (
	_ core.SMSService     = (*consoleService)(nil)
	_ core.BulkSMSService = (*consoleService)(nil)
)

func NewConsoleService() core.SMSService {
	return &consoleService{}
}

func (svc consoleService) SendMessages(messages ...*core.SMSMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) SendBulk(mobiles []string, message string) error {
	svc.sendMessage(&core.SMSMessage{Mobile: strings.Join(mobiles, ","), Message: message})
	return nil
}

func (svc consoleService) sendMessage(msg *core.SMSMessage) {
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}
	if !svc.disableOutput {
		log.Printf("SMS to %s:\n%s\n", msg.Mobile, msg.Message)
	}
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock() core.SMSService {
	return &consoleServiceMock{consoleService{disableOutput: true}}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.SMSMessage) {
	for _, msg := range messages {
		// run synchronously
		svc.sendMessage(msg)
	}
}
