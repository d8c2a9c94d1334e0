package core

// Logger is implemented by services that can log application events;
// args may carry an error, a map of extra fields or the acting applicant.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
