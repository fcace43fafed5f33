package router

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// cookie 里只保存会话 key 原文，会话本身在 chii_os_web_sessions。
const sessionKeyField = "sid"

func sessionKey(c *gin.Context) string {
	if c == nil {
		return ""
	}
	v, _ := sessions.Default(c).Get(sessionKeyField).(string)
	return strings.TrimSpace(v)
}

func setSessionKey(c *gin.Context, key string) error {
	sess := sessions.Default(c)
	sess.Set(sessionKeyField, key)
	return sess.Save()
}

func clearSession(c *gin.Context) {
	if c == nil {
		return
	}
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
}
