// Package logctx carries element and message identity on a context so that
// log records emitted deep inside builders and bus handlers can be correlated.
package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates records with the element and message data found on the
// record's context.
type Handler struct {
	slog.Handler
}

// Wrap returns h decorated with Handler. A nil h yields a discarding handler.
func Wrap(h slog.Handler) slog.Handler {
	if h == nil {
		return slog.DiscardHandler
	}
	if _, ok := h.(Handler); ok {
		return h
	}
	return Handler{Handler: h}
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if ed, ok := ctx.Value(elementDataKey{}).(*ElementData); ok {
		r.AddAttrs(slog.Group("el",
			slog.String("tag", ed.Tag),
			slog.String("id", ed.ID),
		))
	}

	if md, ok := ctx.Value(messageDataKey{}).(*MessageData); ok {
		attrs := []any{
			slog.String("kind", md.Kind),
			slog.String("type", md.Type),
			slog.String("id", md.ID),
		}
		if md.CausationID != "" {
			attrs = append(attrs, slog.String("causation_id", md.CausationID))
		}
		if md.CorrelationID != "" {
			attrs = append(attrs, slog.String("correlation_id", md.CorrelationID))
		}
		r.AddAttrs(slog.Group("msg", attrs...))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type elementDataKey struct{}

type ElementData struct {
	Tag string
	ID  string
}

func WithElementData(ctx context.Context, data *ElementData) context.Context {
	return context.WithValue(ctx, elementDataKey{}, data)
}

type messageDataKey struct{}

type MessageData struct {
	Kind          string
	Type          string
	ID            string
	CausationID   string
	CorrelationID string
}

func WithMessageData(ctx context.Context, data *MessageData) context.Context {
	return context.WithValue(ctx, messageDataKey{}, data)
}
