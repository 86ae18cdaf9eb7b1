// Package transport is the boundary to the chat channel. The workflow sees
// only the three event shapes defined here and replies via Sender.
package transport

import (
	"context"
	"io"
	"strings"
)

type EventKind int

const (
	KindText EventKind = iota
	KindPhoto
	KindCommand
)

func (k EventKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindCommand:
		return "command"
	}
	return "unknown"
}

// Event is one inbound user action.
type Event struct {
	Kind EventKind
	UID  string

	Text    string   // KindText
	FileRef string   // KindPhoto
	Command string   // KindCommand, without the leading slash
	Args    []string // KindCommand
}

func TextMessage(uid, text string) Event {
	return Event{Kind: KindText, UID: uid, Text: text}
}

func PhotoMessage(uid, fileRef string) Event {
	return Event{Kind: KindPhoto, UID: uid, FileRef: fileRef}
}

func Command(uid, name string, args ...string) Event {
	if len(args) == 0 {
		args = nil
	}
	return Event{Kind: KindCommand, UID: uid, Command: name, Args: args}
}

// ParseCommand splits "/name@bot arg1 arg2" into its parts. ok is false
// when text is not a command.
func ParseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || len(fields[0]) == 1 {
		return "", nil, false
	}
	name, _, _ = strings.Cut(fields[0][1:], "@")
	if len(fields) > 1 {
		args = fields[1:]
	}
	return strings.ToLower(name), args, true
}

// Sender delivers a reply. A non-empty keyboard replaces the user's reply
// keyboard; nil leaves it unchanged.
type Sender interface {
	Send(ctx context.Context, uid, text string, keyboard []string) error
}

// FileFetcher downloads a photo given its transport file reference.
type FileFetcher interface {
	Fetch(ctx context.Context, fileRef string) (io.ReadCloser, string, error)
}

// Handler consumes events. It must reply to the user itself.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) { f(ctx, ev) }

// Transport receives events until ctx is done and sends replies.
type Transport interface {
	Sender
	FileFetcher
	Run(ctx context.Context, h Handler) error
}
