// Package session runs live query editing sessions. Each session owns one
// query model and applies edit commands to it one at a time, answering each
// with a snapshot of the model.
package session

import (
	"errors"
	"fmt"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
)

// Op names an edit command
type Op string

const (
	OpOpen                Op = "open"
	OpParse               Op = "parse"
	OpSetTarget           Op = "set_target"
	OpUpdateSegment       Op = "update_segment"
	OpTruncateSegments    Op = "truncate_segments"
	OpAddFunction         Op = "add_function"
	OpRemoveFunction      Op = "remove_function"
	OpMoveFunction        Op = "move_function"
	OpUpdateFunctionParam Op = "update_function_param"
	OpAddTag              Op = "add_tag"
	OpUpdateTag           Op = "update_tag"
	OpRemoveTag           Op = "remove_tag"
	OpToggleTextEditor    Op = "toggle_text_editor"
	OpCommit              Op = "commit"
	OpSnapshot            Op = "snapshot"
)

// Reply types
const (
	ReplySession          = "session"
	ReplySnapshot         = "snapshot"
	ReplyError            = "error"
	ReplyRegistryReloaded = "registry_reloaded"
)

// Command is one edit sent by a client. Which fields matter depends on Op.
type Command struct {
	Op       Op             `json:"op"`
	Target   *model.Target  `json:"target,omitempty"`
	Text     string         `json:"text,omitempty"`
	Index    int            `json:"index,omitempty"`
	Param    int            `json:"param,omitempty"`
	Offset   int            `json:"offset,omitempty"`
	Value    string         `json:"value,omitempty"`
	Name     string         `json:"name,omitempty"`
	Tag      model.TagExpr  `json:"tag"`
	Siblings []model.Target `json:"siblings,omitempty"`
}

// Reply answers a command. Snapshot is set on success and on errors, so a
// client can always redraw from the latest state.
type Reply struct {
	Type      string          `json:"type"`
	Session   string          `json:"session,omitempty"`
	Op        Op              `json:"op,omitempty"`
	Snapshot  *model.Snapshot `json:"snapshot,omitempty"`
	Committed *model.Target   `json:"committed,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// RegistrySource returns the registry current at the time of the call
type RegistrySource func() *functions.Registry

// Session is a single editor's query model. It is not safe for concurrent
// use; the connection that owns it applies commands in order.
type Session struct {
	ID string

	registry RegistrySource
	logger   *zap.Logger
	model    *model.QueryModel
}

// New starts a session on an empty target with ref id A
func New(registry RegistrySource, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		ID:       ksuid.New().String(),
		registry: registry,
		logger:   logger,
	}
	s.open(model.Target{RefID: "A"})
	return s
}

// Model returns the session's query model
func (s *Session) Model() *model.QueryModel {
	return s.model
}

func (s *Session) open(target model.Target) {
	s.model = model.New(target, s.registry(), model.WithLogger(s.logger))
}

// Hello is the first reply on a new connection
func (s *Session) Hello() Reply {
	snap := s.model.Snapshot()
	return Reply{Type: ReplySession, Session: s.ID, Snapshot: &snap}
}

// Apply runs one command against the model.
func (s *Session) Apply(cmd Command) Reply {
	committed, err := s.apply(cmd)

	snap := s.model.Snapshot()
	reply := Reply{Type: ReplySnapshot, Session: s.ID, Op: cmd.Op, Snapshot: &snap, Committed: committed}
	if err != nil {
		s.logger.Debug("session command failed",
			zap.String("session", s.ID),
			zap.String("op", string(cmd.Op)),
			zap.Error(err))
		reply.Type = ReplyError
		reply.Error = err.Error()
	}
	return reply
}

func (s *Session) apply(cmd Command) (*model.Target, error) {
	m := s.model

	switch cmd.Op {
	case OpOpen:
		if cmd.Target == nil {
			return nil, errors.New("open requires a target")
		}
		s.open(*cmd.Target)
	case OpParse:
		// reparse against the current registry, which may have been reloaded
		s.open(m.Target)
	case OpSetTarget:
		m.SetTarget(cmd.Text)
	case OpUpdateSegment:
		return nil, m.UpdateSegment(cmd.Index, cmd.Value)
	case OpTruncateSegments:
		return nil, m.TruncateSegments(cmd.Index)
	case OpAddFunction:
		_, err := m.AddFunction(cmd.Name)
		return nil, err
	case OpRemoveFunction:
		return nil, m.RemoveFunction(cmd.Index)
	case OpMoveFunction:
		return nil, m.MoveFunction(cmd.Index, cmd.Offset)
	case OpUpdateFunctionParam:
		return nil, m.UpdateFunctionParam(cmd.Index, cmd.Param, cmd.Value)
	case OpAddTag:
		return nil, m.AddTag(cmd.Tag)
	case OpUpdateTag:
		return nil, m.UpdateTag(cmd.Tag, cmd.Index)
	case OpRemoveTag:
		return nil, m.RemoveTag(cmd.Index)
	case OpToggleTextEditor:
		m.ToggleTextEditor()
	case OpCommit:
		target := m.Commit(cmd.Siblings)
		return &target, nil
	case OpSnapshot:
	default:
		return nil, fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil, nil
}
