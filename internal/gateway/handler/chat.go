package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"autocontent/internal/entitlement"
	"autocontent/internal/pipeline"
)

const (
	chatWriteWait = 10 * time.Second
	chatPongWait  = 60 * time.Second
	chatPingEvery = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatInbound struct {
	Type        string `json:"type"`
	Instruction string `json:"instruction,omitempty"`
}

type chatOutbound struct {
	Type    string              `json:"type"`
	RunID   string              `json:"runId,omitempty"`
	Content string              `json:"content,omitempty"`
	History pipeline.Transcript `json:"history,omitempty"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
}

// RefinementChat is the websocket loop for iterating on a finished
// run's artifact. Each "refine" message applies one instruction and
// pushes the replacement content plus the updated transcript.
func (h *Handlers) RefinementChat(w http.ResponseWriter, r *http.Request) {
	run, ok := h.runs.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if run.Artifact == nil {
		http.Error(w, "run has no artifact yet", http.StatusConflict)
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	writeCh := make(chan chatOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushChat(writeCh, chatOutbound{
		Type:    "subscribed",
		RunID:   run.ID,
		History: run.Transcript,
	})

	for {
		var in chatInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))

		switch msgType {
		case "ping":
			pushChat(writeCh, chatOutbound{Type: "pong"})
		case "refine":
			instruction := strings.TrimSpace(in.Instruction)
			if instruction == "" {
				pushChat(writeCh, chatOutbound{
					Type:    "error",
					Code:    "invalid_argument",
					Message: "instruction is required",
				})
				continue
			}
			if !run.begin() {
				pushChat(writeCh, chatOutbound{
					Type:    "error",
					Code:    "busy",
					Message: errRunBusy.Error(),
				})
				continue
			}
			reqCtx, reqCancel := context.WithTimeout(ctx, h.timeout)
			out, refErr := h.pipeline.Refine(reqCtx, run.User, run.Template, run.Artifact, instruction, &run.Transcript)
			reqCancel()
			run.end()
			if refErr != nil {
				pushChat(writeCh, chatOutbound{
					Type:    "error",
					Code:    chatErrCode(refErr),
					Message: chatErrMessage(refErr),
				})
				continue
			}
			pushChat(writeCh, chatOutbound{
				Type:    "refined",
				RunID:   run.ID,
				Content: out.Content,
				History: run.Transcript,
			})
		default:
			pushChat(writeCh, chatOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + msgType,
			})
		}
	}
}

func chatErrCode(err error) string {
	switch {
	case errors.Is(err, entitlement.ErrTierRequired):
		return "tier_required"
	case errors.Is(err, pipeline.ErrUpstreamFailed):
		return "upstream_failed"
	default:
		return "internal"
	}
}

func chatErrMessage(err error) string {
	if errors.Is(err, entitlement.ErrTierRequired) {
		return "refinement requires an active subscription"
	}
	return "could not apply the change, try again"
}

// pushChat never blocks the read loop: when the buffer is full the
// oldest pending frame is dropped to make room.
func pushChat(writeCh chan chatOutbound, out chatOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
