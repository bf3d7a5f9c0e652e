package messaging

import (
	"reflect"

	"github.com/google/uuid"
)

// Kind discriminates message kinds on the wire.
type Kind string

const (
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
	KindEvent   Kind = "event"
	KindResult  Kind = "result"
)

// Headers identify a message and relate it to the messages that caused it.
type Headers struct {
	MessageType   string `json:"messageType"`
	MessageID     string `json:"messageId"`
	CausationID   string `json:"causationId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// NewHeaders returns headers for a new message of messageType with a fresh ID.
func NewHeaders(messageType string) Headers {
	return Headers{MessageType: messageType, MessageID: uuid.NewString()}
}

// CausedBy returns a copy of h recording parent as its cause. The correlation
// ID is inherited from parent, or is parent's ID when parent starts a chain.
func (h Headers) CausedBy(parent Headers) Headers {
	h.CausationID = parent.MessageID
	h.CorrelationID = parent.CorrelationID
	if h.CorrelationID == "" {
		h.CorrelationID = parent.MessageID
	}
	return h
}

// Message is implemented by every message kind.
type Message interface {
	MessageHeaders() Headers
	MessageKind() Kind
}

// Action is a command or a query. Actions are answered by a single handler.
type Action interface {
	Message
	isAction()
}

// AnyEvent is an event of any body type.
type AnyEvent interface {
	Message
	isEvent()
}

// AnyResult is the answer to an action.
type AnyResult interface {
	Message
	isResult()
}

// Command asks for a change. Embed it to declare domain commands.
type Command[B any] struct {
	Headers Headers `json:"headers"`
	Body    B       `json:"body"`
}

// NewCommand returns a command with fresh headers.
func NewCommand[B any](messageType string, body B) *Command[B] {
	return &Command[B]{Headers: NewHeaders(messageType), Body: body}
}

func (m Command[B]) MessageHeaders() Headers { return m.Headers }
func (m Command[B]) MessageKind() Kind       { return KindCommand }
func (Command[B]) isAction()                 {}

// Query asks for information. Embed it to declare domain queries.
type Query[B any] struct {
	Headers Headers `json:"headers"`
	Body    B       `json:"body"`
}

// NewQuery returns a query with fresh headers.
func NewQuery[B any](messageType string, body B) *Query[B] {
	return &Query[B]{Headers: NewHeaders(messageType), Body: body}
}

func (m Query[B]) MessageHeaders() Headers { return m.Headers }
func (m Query[B]) MessageKind() Kind       { return KindQuery }
func (Query[B]) isAction()                 {}

// Event reports something that happened. Embed it to declare domain events.
type Event[B any] struct {
	Headers Headers `json:"headers"`
	Body    B       `json:"body"`
}

// NewEvent returns an event with fresh headers.
func NewEvent[B any](messageType string, body B) *Event[B] {
	return &Event[B]{Headers: NewHeaders(messageType), Body: body}
}

func (m Event[B]) MessageHeaders() Headers { return m.Headers }
func (m Event[B]) MessageKind() Kind       { return KindEvent }
func (Event[B]) isEvent()                  {}

// Result answers an action.
type Result[B any] struct {
	Headers Headers `json:"headers"`
	Body    B       `json:"body"`
}

// NewResult returns a result of messageType caused by action.
func NewResult[B any](messageType string, action Action, body B) *Result[B] {
	h := NewHeaders(messageType)
	if action != nil {
		h = h.CausedBy(action.MessageHeaders())
	}
	return &Result[B]{Headers: h, Body: body}
}

func (m Result[B]) MessageHeaders() Headers { return m.Headers }
func (m Result[B]) MessageKind() Kind       { return KindResult }
func (Result[B]) isResult()                 {}

// VoidType is the message type of Void.
const VoidType = "void"

type voidResult struct{}

func (voidResult) MessageHeaders() Headers { return Headers{MessageType: VoidType} }
func (voidResult) MessageKind() Kind       { return KindResult }
func (voidResult) isResult()               {}

// Void is the result of actions nobody handles, and of handlers that return
// no result.
var Void AnyResult = voidResult{}

// IsVoid reports whether r is Void, nil, or a nil pointer to a result type.
func IsVoid(r AnyResult) bool {
	if r == nil {
		return true
	}
	if _, ok := r.(voidResult); ok {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

var (
	_ Action    = (*Command[any])(nil)
	_ Action    = (*Query[any])(nil)
	_ AnyEvent  = (*Event[any])(nil)
	_ AnyResult = (*Result[any])(nil)
)
