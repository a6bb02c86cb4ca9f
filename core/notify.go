package core

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a non-blocking, user-visible message.
type Notification struct {
	Level   Level
	Message string
}

// Notifier is any service that can surface notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

func NotifySuccess(n Notifier, msg string) { n.Notify(Notification{Level: LevelSuccess, Message: msg}) }
func NotifyError(n Notifier, msg string)   { n.Notify(Notification{Level: LevelError, Message: msg}) }
func NotifyWarning(n Notifier, msg string) { n.Notify(Notification{Level: LevelWarning, Message: msg}) }
