package hcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCodeError(t *testing.T) {
	tests := []struct {
		code ResultCode
		want string
	}{
		{ResultInvalidArg, "E_INVALIDARG (0x80070057)"},
		{ResultSystemNotFound, "HCS_E_SYSTEM_NOT_FOUND (0xC037010E)"},
		{ResultCode(0x80991234), "hresult 0x80991234"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Error())
		})
	}
}

func TestResultCodeFailed(t *testing.T) {
	assert.True(t, ResultUnexpected.Failed())
	assert.True(t, ResultInvalidJSON.Failed())
	assert.False(t, ResultCode(0).Failed())
	assert.False(t, ResultCode(1).Failed())
}

func TestOperationErrorPrettyDetail(t *testing.T) {
	t.Run("json detail is indented", func(t *testing.T) {
		e := &OperationError{Code: ResultInvalidJSON, Detail: `{"Error":1,"ErrorMessage":"bad"}`}
		detail, ok := e.PrettyDetail()
		assert.True(t, ok)
		assert.Equal(t, "{\n  \"Error\": 1,\n  \"ErrorMessage\": \"bad\"\n}", detail)
	})

	t.Run("non json detail is omitted", func(t *testing.T) {
		e := &OperationError{Code: ResultInvalidJSON, Detail: "not json"}
		_, ok := e.PrettyDetail()
		assert.False(t, ok)
	})

	t.Run("empty detail is omitted", func(t *testing.T) {
		e := &OperationError{Code: ResultInvalidJSON}
		_, ok := e.PrettyDetail()
		assert.False(t, ok)
	})
}
