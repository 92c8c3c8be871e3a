package shopping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/model"
)

func TestRenderString(t *testing.T) {
	tests := []struct {
		name  string
		items []model.ShoppingItem
		want  string
	}{
		{
			name:  "empty list is only the header",
			items: nil,
			want:  "Список покупок:\n",
		},
		{
			name: "items follow the header on their own lines",
			items: []model.ShoppingItem{
				{Name: "Egg", Unit: "pcs", Amount: 2},
				{Name: "Flour", Unit: "g", Amount: 300},
			},
			want: "Список покупок:\n\nEgg - 2 pcs\nFlour - 300 g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderString(tt.items))
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_PropagatesWriteError(t *testing.T) {
	err := Render(failingWriter{}, []model.ShoppingItem{{Name: "Egg", Unit: "pcs", Amount: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
