package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	s, err := RandomString(10)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9]{10}$`), s)
}

func TestSlugifyHashtag(t *testing.T) {
	cases := map[string]string{
		"summer vibes": "summer-vibes",
		"a,b":          "a-b",
		"wow(yes)":     "wow-yes",
		"hello!":       "hello",
		" لماذا؟ ":     "لماذا",
		"Sunset":       "Sunset",
	}
	for in, want := range cases {
		assert.Equal(t, want, SlugifyHashtag(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 90))
	assert.Equal(t, "你好", Truncate("你好世界", 2))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "other"))
}

func TestSnowflake(t *testing.T) {
	require.NoError(t, InitSnowflake("2024-01-01", 1))
	a, err := GenerateID()
	require.NoError(t, err)
	b, err := GenerateID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.Error(t, InitSnowflake("bad", 1))
}

type signup struct {
	Username  string `binding:"required,min=3"`
	Password  string `binding:"required"`
	Password2 string `binding:"required,eqfield=Password"`
}

func TestFormatValidationError(t *testing.T) {
	err := Validate(signup{Username: "ab", Password: "x", Password2: "x"})
	require.Error(t, err)
	assert.Equal(t, "用户名长度不能小于3", FormatValidationError(err))

	err = Validate(signup{Username: "abc", Password: "x", Password2: "y"})
	assert.Equal(t, "确认密码必须与密码一致", FormatValidationError(err))
}
