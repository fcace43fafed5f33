// chii-authctx 打印某个用户 id 或 access token 解析出的授权上下文，用于排查权限与 NSFW 判定。
//
// 用法：
//
//	chii-authctx -user 42
//	chii-authctx -token abc123
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"chii/internal/auth"
	"chii/internal/config"
	"chii/internal/obs"
	"chii/internal/store"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 0, "用户 id")
	token := flag.String("token", "", "access token")
	flag.Parse()
	if (*userID == 0) == (*token == "") {
		fmt.Fprintln(os.Stderr, "必须且只能指定 -user 或 -token 之一")
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("加载配置失败", "err", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	db, dialect, err := store.OpenDB(cfg.Env, cfg.DB.Driver, cfg.DB.DSN, cfg.DB.SQLitePath)
	if err != nil {
		slog.Error("连接数据库失败", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	st := store.New(db)
	st.SetDialect(dialect)

	// 排查时总是直接读库，不经过共享缓存。
	resolver, err := auth.NewResolver(auth.Options{
		Tokens:            st,
		Users:             st,
		Permissions:       st,
		Sessions:          st,
		RestrictedUserIDs: cfg.Auth.RestrictedUserIDs,
		Logger:            logger,
	})
	if err != nil {
		slog.Error("初始化 resolver 失败", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var a auth.Context
	if *token != "" {
		a, err = resolver.ResolveFromHeader(ctx, []string{"Bearer " + *token})
	} else {
		a, err = resolver.ResolveFromUserID(ctx, *userID)
	}
	if err != nil {
		slog.Error("解析授权上下文失败", "err", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(struct {
		auth.Context
		Group string `json:"group"`
	}{Context: a, Group: a.GroupID.String()}, "", "  ")
	if err != nil {
		slog.Error("序列化失败", "err", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
