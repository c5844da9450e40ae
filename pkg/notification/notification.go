package notification

import (
	"time"
)

type Action int

const (
	ActionRelink Action = iota + 1
	ActionAlreadyLinked
)

type Sender interface {
	CanSend() bool
	Send(title string, description string, runTime time.Duration, fields []Field, dryRun bool) error
	BuildField(action Action, options BuildOptions) Field
	Name() string
}

type Field struct {
	Name  string
	Value string
}

type BuildOptions struct {
	Representative string
	Replaced       string
	Size           int64
}
