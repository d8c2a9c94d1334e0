package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/seepmela/mela/core/applicant"
)

type messageLogRepository struct {
	db *DB
}

func NewMessageLogRepository(db *DB) applicant.MessageLogRepository {
	return &messageLogRepository{db: db}
}

func (repo *messageLogRepository) CreateMessageLog(_ context.Context, l applicant.MessageLog) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l.ID = uuid.New().String()
	repo.db.messageLogs = append(repo.db.messageLogs, l)
	return nil
}

type loginLogRepository struct {
	db *DB
}

func NewLoginLogRepository(db *DB) applicant.LoginLogRepository {
	return &loginLogRepository{db: db}
}

func (repo *loginLogRepository) CreateLoginLog(_ context.Context, l applicant.LoginLog) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l.ID = uuid.New().String()
	repo.db.loginLogs = append(repo.db.loginLogs, l)
	return nil
}
