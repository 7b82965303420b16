package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/gram-api/pkg/apperr"
)

// Response 统一响应结构，成功时Code为0，失败时为HTTP状态码
type Response struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Kind    string    `json:"kind,omitempty"` // 错误类别 not_found permission_denied validation unauthorized internal
	Data    any       `json:"data"`
	Meta    *PageMeta `json:"meta,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

func write(c *gin.Context, status int, resp Response) {
	c.JSON(status, resp)
}

// Success 200
func Success(c *gin.Context, message string, data any) {
	write(c, http.StatusOK, Response{Message: message, Data: data})
}

// Created 201，用于发布作品、评论和注册
func Created(c *gin.Context, message string, data any) {
	write(c, http.StatusCreated, Response{Message: message, Data: data})
}

// SuccessPage 分页列表
func SuccessPage(c *gin.Context, message string, data any, page, size int, total int64) {
	write(c, http.StatusOK, Response{
		Message: message,
		Data:    data,
		Meta:    &PageMeta{Page: page, Size: size, Total: total},
	})
}

// fail 错误响应，err只记录到gin上下文，不返回给客户端
func fail(c *gin.Context, status int, kind apperr.ErrorType, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	write(c, status, Response{Code: status, Message: message, Kind: string(kind)})
}

// FromError 按业务错误类别输出响应，非业务错误统一为500
func FromError(c *gin.Context, err error) {
	fail(c, apperr.HTTPStatus(err), apperr.TypeOf(err), apperr.Message(err), err)
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string, err error) {
	fail(c, http.StatusBadRequest, apperr.TypeValidation, message, err)
}

// Unauthorized 未登录或令牌无效
func Unauthorized(c *gin.Context, message string, err error) {
	fail(c, http.StatusUnauthorized, apperr.TypeUnauthorized, message, err)
}
