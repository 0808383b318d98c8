package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
)

func builtin() *functions.Registry {
	return functions.Builtin()
}

func TestSessionStartsEmpty(t *testing.T) {
	s := New(builtin, zaptest.NewLogger(t))

	hello := s.Hello()
	assert.Equal(t, ReplySession, hello.Type)
	assert.NotEmpty(t, hello.Session)
	require.NotNil(t, hello.Snapshot)
	assert.Equal(t, "A", hello.Snapshot.RefID)
	assert.Equal(t, model.StateEmpty, hello.Snapshot.State)

	other := New(builtin, nil)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestSessionEditFlow(t *testing.T) {
	s := New(builtin, zaptest.NewLogger(t))

	steps := []struct {
		cmd      Command
		rendered string
		state    model.State
	}{
		{
			cmd:      Command{Op: OpOpen, Target: &model.Target{RefID: "B", Target: "servers.*.cpu"}},
			rendered: "servers.*.cpu",
			state:    model.StateParsed,
		},
		{
			cmd:      Command{Op: OpAddFunction, Name: "aliasByNode"},
			rendered: "aliasByNode(servers.*.cpu, 1)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpUpdateSegment, Index: 2, Value: "mem"},
			rendered: "aliasByNode(servers.*.mem, 1)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpAddFunction, Name: "scale"},
			rendered: "scale(aliasByNode(servers.*.mem, 1), 1)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpUpdateFunctionParam, Index: 1, Param: 0, Value: "10"},
			rendered: "scale(aliasByNode(servers.*.mem, 1), 10)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpMoveFunction, Index: 1, Offset: -1},
			rendered: "aliasByNode(scale(servers.*.mem, 10), 1)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpRemoveFunction, Index: 1},
			rendered: "scale(servers.*.mem, 10)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpTruncateSegments, Index: 1},
			rendered: "scale(servers, 10)",
			state:    model.StateEdited,
		},
		{
			cmd:      Command{Op: OpToggleTextEditor},
			rendered: "scale(servers, 10)",
			state:    model.StateTextMode,
		},
		{
			cmd:      Command{Op: OpSetTarget, Text: "sumSeries(a.b)"},
			rendered: "sumSeries(a.b)",
			state:    model.StateParsed,
		},
	}

	for _, step := range steps {
		reply := s.Apply(step.cmd)
		require.Equal(t, ReplySnapshot, reply.Type, "op %s: %s", step.cmd.Op, reply.Error)
		assert.Equal(t, step.cmd.Op, reply.Op)
		assert.Equal(t, step.rendered, reply.Snapshot.Rendered, "op %s", step.cmd.Op)
		assert.Equal(t, step.state, reply.Snapshot.State, "op %s", step.cmd.Op)
	}
	assert.Equal(t, "B", s.Model().Target.RefID)
}

func TestSessionTags(t *testing.T) {
	s := New(builtin, nil)

	reply := s.Apply(Command{Op: OpAddTag, Tag: model.TagExpr{Key: "name", Value: "cpu"}})
	require.Equal(t, ReplySnapshot, reply.Type)
	assert.Equal(t, "seriesByTag('name=cpu')", reply.Snapshot.Rendered)

	reply = s.Apply(Command{Op: OpUpdateTag, Index: 0, Tag: model.TagExpr{Key: "name", Operator: "=~", Value: "cpu.*"}})
	assert.Equal(t, "seriesByTag('name=~cpu.*')", reply.Snapshot.Rendered)

	reply = s.Apply(Command{Op: OpRemoveTag, Index: 0})
	assert.Equal(t, "", reply.Snapshot.Rendered)
	assert.False(t, reply.Snapshot.SeriesByTagUsed)
}

func TestSessionCommit(t *testing.T) {
	s := New(builtin, nil)
	s.Apply(Command{Op: OpOpen, Target: &model.Target{RefID: "C", Target: "diffSeries(#A,#B)"}})

	reply := s.Apply(Command{Op: OpCommit, Siblings: []model.Target{
		{RefID: "A", Target: "first.query.count"},
		{RefID: "B", Target: "second.query.count"},
	}})

	require.NotNil(t, reply.Committed)
	assert.Equal(t, "diffSeries(#A, #B)", reply.Committed.Target)
	assert.Equal(t, "diffSeries(first.query.count, second.query.count)", reply.Committed.TargetFull)
}

func TestSessionErrors(t *testing.T) {
	s := New(builtin, nil)

	tests := []Command{
		{Op: "explode"},
		{Op: OpOpen},
		{Op: OpRemoveFunction, Index: 3},
		{Op: OpAddFunction},
	}
	for _, cmd := range tests {
		reply := s.Apply(cmd)
		assert.Equal(t, ReplyError, reply.Type, "op %s", cmd.Op)
		assert.NotEmpty(t, reply.Error, "op %s", cmd.Op)
		assert.NotNil(t, reply.Snapshot, "op %s", cmd.Op)
	}

	s.Apply(Command{Op: OpSetTarget, Text: "sum("})
	reply := s.Apply(Command{Op: OpAddFunction, Name: "scale"})
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, model.ErrTextEditorActive.Error(), reply.Error)
}

func TestSessionParseUsesCurrentRegistry(t *testing.T) {
	current := functions.NewRegistry(map[string]*functions.FuncDef{})
	s := New(func() *functions.Registry { return current }, nil)
	s.Apply(Command{Op: OpSetTarget, Text: "scale(a.b, 2)"})
	assert.True(t, s.Model().Functions[0].Def.Unknown)

	current = functions.Builtin()
	reply := s.Apply(Command{Op: OpParse})
	require.Equal(t, ReplySnapshot, reply.Type)
	assert.False(t, s.Model().Functions[0].Def.Unknown)
	assert.Equal(t, "scale(a.b, 2)", reply.Snapshot.Rendered)
}
