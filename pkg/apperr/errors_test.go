package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("作品不存在"), http.StatusNotFound},
		{PermissionDenied("私密账号"), http.StatusForbidden},
		{Validation("用户名已存在"), http.StatusBadRequest},
		{Unauthorized("请先登录"), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestTypeOfWrapped(t *testing.T) {
	err := fmt.Errorf("关注失败: %w", NotFound("用户不存在"))

	assert.True(t, IsType(err, TypeNotFound))
	assert.Equal(t, "用户不存在", Message(err))
	assert.False(t, IsType(nil, TypeNotFound))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("查询失败", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[internal] 查询失败: connection reset", err.Error())
	assert.Equal(t, "服务器内部错误", Message(cause))
}
