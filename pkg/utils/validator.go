package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate 与gin共用binding标签
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// Validate 校验结构体，用于绕过HTTP绑定的入口
func Validate(i interface{}) error {
	return validate.Struct(i)
}

// 错误信息映射
var msgMap = map[string]string{
	"required": "不能为空",
	"min":      "长度不能小于%v",
	"max":      "长度不能大于%v",
	"email":    "必须是有效的邮箱地址",
	"url":      "必须是有效的网址",
	"oneof":    "必须是[%v]中的一个",
	"eqfield":  "必须与%v一致",
	"alphanum": "只能包含字母和数字",
	"gt":       "必须大于%v",
	"gte":      "必须大于等于%v",
	"lt":       "必须小于%v",
	"lte":      "必须小于等于%v",
}

// 字段名称映射
var fieldMap = map[string]string{
	"Username":        "用户名",
	"Email":           "邮箱",
	"Email2":          "确认邮箱",
	"Password":        "密码",
	"Password2":       "确认密码",
	"OldPassword":     "原密码",
	"NewPassword":     "新密码",
	"ConfirmPassword": "确认密码",
	"Caption":         "描述",
	"Content":         "内容",
	"Bio":             "简介",
	"Website":         "网站",
}

// FormatValidationError 将校验错误格式化为可读信息，只返回第一个错误
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}
	firstErr := errs[0]

	fieldName := fieldMap[firstErr.Field()]
	if fieldName == "" {
		fieldName = firstErr.Field()
	}

	msgTemplate := msgMap[firstErr.Tag()]
	if msgTemplate == "" {
		msgTemplate = "验证失败"
	}

	if firstErr.Param() != "" {
		param := firstErr.Param()
		if name, ok := fieldMap[param]; ok {
			param = name
		}
		return fieldName + fmt.Sprintf(msgTemplate, param)
	}
	return fieldName + msgTemplate
}
