package server

// SessionCookieName 是承载 Web 会话 key 的 cookie 名。
const SessionCookieName = "chiiNextSessionID"
