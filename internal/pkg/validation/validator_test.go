package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rule struct {
	Missing    string  `json:"missing" validate:"required"`
	Substitute string  `json:"substitute" validate:"required,nefield=Missing"`
	Score      float64 `json:"score" validate:"gte=0,lte=1"`
}

type request struct {
	Name  string `json:"name" validate:"notblank"`
	Limit int    `json:"limit" validate:"min=0,max=100"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(&rule{Missing: "egg", Substitute: "banana", Score: 0.8}))
	})

	t.Run("score out of range", func(t *testing.T) {
		err := Struct(&rule{Missing: "egg", Substitute: "banana", Score: 1.2})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "rule.score", verr.Fields[0].Field)
		assert.Equal(t, "lte", verr.Fields[0].Tag)
		assert.Equal(t, "rule.score must be less than or equal to 1", verr.Fields[0].Message)
	})

	t.Run("self substitution", func(t *testing.T) {
		err := Struct(&rule{Missing: "egg", Substitute: "egg", Score: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must differ from")
	})

	t.Run("blank and max", func(t *testing.T) {
		err := Struct(&request{Name: "   ", Limit: 500})

		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 2)
	})
}
