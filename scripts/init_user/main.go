package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/where2dive/internal/config"
	"github.com/where2dive/internal/db"
)

func main() {
	cfg := config.Load()
	email := flag.String("email", "demo@where2dive.com", "账号邮箱")
	password := flag.String("password", "1234", "账号密码")
	flag.Parse()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	if err := db.EnsureUser(*email, *password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("演示账号已就绪")
	fmt.Println("邮箱:", *email)
	fmt.Println("密码:", *password)
}
