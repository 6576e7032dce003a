package shared

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct{}

func (codedErr) Error() string      { return "coded" }
func (codedErr) DomainCode() string { return "CUSTOM" }

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain error", ErrNotFound, "NOT_FOUND"},
		{"wrapped domain error", fmt.Errorf("load: %w", ErrInvalidState), "INVALID_STATE"},
		{"coded error", fmt.Errorf("x: %w", codedErr{}), "CUSTOM"},
		{"plain error", fmt.Errorf("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 5, 1, 0).TotalPages)
	assert.Equal(t, 10, Filter{Page: 2, PageSize: 10}.Offset())
	assert.Equal(t, 0, Filter{Page: 0, PageSize: 10}.Offset())
}
