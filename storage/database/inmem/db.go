package inmemdb

import (
	"sync"

	"github.com/seepmela/mela/core/applicant"
)

// DB is a mutex-guarded in-memory store used by tests and local development.
type DB struct {
	mutex       sync.RWMutex
	applicants  map[string]*applicant.Applicant
	counters    map[string]int
	schedules   []applicant.Schedule
	messageLogs []applicant.MessageLog
	loginLogs   []applicant.LoginLog
}

func NewDB() *DB {
	return &DB{
		applicants: make(map[string]*applicant.Applicant),
		counters:   make(map[string]int),
	}
}

func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.applicants = make(map[string]*applicant.Applicant)
	db.counters = make(map[string]int)
	db.schedules = nil
	db.messageLogs = nil
	db.loginLogs = nil
}

// MessageLogs returns a copy of the recorded message logs.
func (db *DB) MessageLogs() []applicant.MessageLog {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	logs := make([]applicant.MessageLog, len(db.messageLogs))
	copy(logs, db.messageLogs)
	return logs
}

// LoginLogs returns a copy of the recorded login logs.
func (db *DB) LoginLogs() []applicant.LoginLog {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	logs := make([]applicant.LoginLog, len(db.loginLogs))
	copy(logs, db.loginLogs)
	return logs
}
