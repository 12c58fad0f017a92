package core

// Logger is any levelled logger.
// expected args: error | map[string]interface{} | Person
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the portal user an event is reported for.
type Person struct {
	ID       string
	Username string
	Email    string
}
