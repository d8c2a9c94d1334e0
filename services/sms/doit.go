package smssvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/seepmela/mela/core"
	"github.com/seepmela/mela/core/applicant"
)

// doitService delivers texts through Nepal's DoIT SMS gateway
// (https://sms.doit.gov.np/api/sms). There is no official SDK; the gateway
// takes a Bearer token and a JSON body {mobile, message} where mobile may be
// a comma-separated list.
type doitService struct {
	baseURL string
	token   string
	client  *http.Client
	msgLogs applicant.MessageLogRepository
	logger  core.Logger
}

var (
	_ core.SMSService     = (*doitService)(nil)
	_ core.BulkSMSService = (*doitService)(nil)
)

func NewDoITService(conf *core.Config, msgLogs applicant.MessageLogRepository, logger core.Logger) *doitService {
	return &doitService{
		baseURL: conf.SMS.BaseURL,
		token:   conf.SMS.Token,
		client:  &http.Client{Timeout: conf.SMS.Timeout},
		msgLogs: msgLogs,
		logger:  logger,
	}
}

func (svc doitService) SendMessages(messages ...*core.SMSMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if !msg.HasRecipients() || !msg.HasContent() {
				return
			}
			if err := svc.send(*msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending SMS: %v", err), err)
			}
		}()
	}
}

// SendBulk delivers one message to many recipients in a single gateway call
// and records the outcome; unlike SendMessages, failures are returned.
func (svc doitService) SendBulk(mobiles []string, message string) error {
	msg := core.SMSMessage{Mobile: strings.Join(mobiles, ","), Message: message}
	err := svc.send(msg)

	if logErr := svc.msgLogs.CreateMessageLog(context.Background(), applicant.MessageLog{
		Kind:      applicant.MessageKindBulk,
		Mobile:    msg.Mobile,
		Message:   msg.Message,
		Succeeded: err == nil,
		CreatedAt: time.Now().UTC(),
	}); logErr != nil {
		svc.logger.Error("logging bulk message", logErr)
	}
	return err
}

func (svc doitService) send(msg core.SMSMessage) error {
	body, err := json.Marshal(map[string]string{
		"mobile":  msg.Mobile,
		"message": msg.Message,
	})
	if err != nil {
		return errors.Wrap(err, "encoding SMS payload")
	}

	req, err := http.NewRequest(http.MethodPost, svc.baseURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building SMS request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+svc.token)

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling SMS gateway")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("SMS gateway returned status %d", res.StatusCode)
	}
	return nil
}
