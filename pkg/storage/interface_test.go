package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicktill/tinygraphite/pkg/model"
)

func TestPanelValidate(t *testing.T) {
	tests := []struct {
		name    string
		panel   Panel
		wantErr bool
	}{
		{
			name:  "valid",
			panel: Panel{ID: "cpu", Targets: []model.Target{{RefID: "A"}, {RefID: "B"}}},
		},
		{name: "no targets", panel: Panel{ID: "empty"}},
		{name: "missing id", panel: Panel{}, wantErr: true},
		{name: "slash in id", panel: Panel{ID: "a/b"}, wantErr: true},
		{
			name:    "missing ref id",
			panel:   Panel{ID: "cpu", Targets: []model.Target{{Target: "a.b"}}},
			wantErr: true,
		},
		{
			name:    "duplicate ref id",
			panel:   Panel{ID: "cpu", Targets: []model.Target{{RefID: "A"}, {RefID: "A"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.panel.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPanelTargetAndClone(t *testing.T) {
	p := &Panel{ID: "cpu", Targets: []model.Target{{RefID: "A", Target: "a.b"}}}

	target, ok := p.Target("A")
	require.True(t, ok)
	assert.Equal(t, "a.b", target.Target)

	_, ok = p.Target("Z")
	assert.False(t, ok)

	c := p.Clone()
	c.Targets[0].Target = "changed"
	assert.Equal(t, "a.b", p.Targets[0].Target)
}
