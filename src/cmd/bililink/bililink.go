package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluele/gcache"
	"github.com/joho/godotenv"

	"github.com/bililink-go/bililink-go/src/api"
	"github.com/bililink-go/bililink-go/src/cmd/bililink/internal/flag"
	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/consts"
	"github.com/bililink-go/bililink-go/src/credentials"
	"github.com/bililink-go/bililink-go/src/instance"
	"github.com/bililink-go/bililink-go/src/log"
	"github.com/bililink-go/bililink-go/src/notify"
	"github.com/bililink-go/bililink-go/src/pkg/metadata"
	"github.com/bililink-go/bililink-go/src/pkg/qrimg"
	bilisentry "github.com/bililink-go/bililink-go/src/pkg/sentry"
	"github.com/bililink-go/bililink-go/src/servers"
)

func getConfig() (*configs.Config, error) {
	var config *configs.Config
	if *flag.Conf != "" {
		c, err := configs.NewConfigWithFile(*flag.Conf)
		if err != nil {
			return nil, err
		}
		config = c
	} else {
		config = flag.GenConfigFromFlags()
	}
	return config, config.Verify()
}

// qrLogin 在终端里打印二维码并等待扫码确认
func qrLogin(ctx context.Context, client *api.Client) error {
	logger := log.GetLogger()
	ticket, err := client.InitiateQRLogin()
	if err != nil {
		return err
	}
	art, err := qrimg.New().RenderTerminal(ticket.URL)
	if err != nil {
		return err
	}
	fmt.Println(art)
	fmt.Println("请使用哔哩哔哩手机客户端扫码登录")

	return client.WaitForQRLogin(ctx, ticket, func() {
		logger.Info("已扫描，请在手机上确认登录")
	})
}

func startBroadcast(client *api.Client, title string, areaID int64) error {
	target, err := client.StartBroadcast(title, areaID)
	if err != nil {
		var verify *api.VerificationRequiredError
		if errors.As(err, &verify) {
			if art, renderErr := qrimg.New().RenderTerminal(verify.URL); renderErr == nil {
				fmt.Println(art)
			}
			fmt.Println("需要人脸认证，请扫码完成认证后重试开播:", verify.URL)
		}
		return err
	}
	fmt.Println("推流地址:", target.Addr)
	fmt.Println("推流码:", target.Key)
	return nil
}

// runOneShotActions 执行命令行上的一次性动作，返回是否执行过
func runOneShotActions(ctx context.Context, client *api.Client) (bool, error) {
	ran := false
	if *flag.Login {
		ran = true
		if err := qrLogin(ctx, client); err != nil {
			return ran, err
		}
		snap := client.Snapshot()
		if snap.Profile != nil {
			fmt.Printf("登录成功: %s (uid %d)\n", snap.Profile.Name, snap.Profile.Mid)
		}
	}
	if *flag.Logout {
		ran = true
		client.Logout()
		fmt.Println("已登出")
	}
	if *flag.NewTitle != "" {
		ran = true
		if err := client.UpdateTitle(*flag.NewTitle); err != nil {
			return ran, err
		}
		fmt.Println("标题已更新")
	}
	if *flag.Start != "" {
		ran = true
		if err := startBroadcast(client, *flag.Start, *flag.AreaID); err != nil {
			return ran, err
		}
	}
	if *flag.Stop {
		ran = true
		if err := client.StopBroadcast(); err != nil {
			return ran, err
		}
		fmt.Println("直播已关闭")
	}
	if *flag.Danmaku != "" {
		ran = true
		if err := client.SendChatMessage(*flag.Danmaku); err != nil {
			return ran, err
		}
		fmt.Println("弹幕已发送")
	}
	return ran, nil
}

// watchBroadcastState 订阅状态变更，在开播/下播切换时发通知
func watchBroadcastState(ctx context.Context, client *api.Client) {
	snapshots, cancel := client.Subscribe()
	bilisentry.GoWithContext(ctx, func(ctx context.Context) {
		defer cancel()
		lastActive := client.Snapshot().LiveActive
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if snap.LiveActive == lastActive {
					continue
				}
				lastActive = snap.LiveActive
				status := consts.BroadcastStatusStop
				if snap.LiveActive {
					status = consts.BroadcastStatusStart
				}
				userName := ""
				if snap.Profile != nil {
					userName = snap.Profile.Name
				}
				if err := notify.SendNotification(ctx, userName, snap.RoomID, status); err != nil {
					log.GetLogger().WithError(err).Warn("发送直播状态通知失败")
				}
			}
		}
	})
}

func main() {
	// 程序退出时刷新 Sentry 事件队列
	defer bilisentry.Flush(2 * time.Second)
	// 捕获主 goroutine 的 panic
	defer bilisentry.Recover()

	// .env 用于本地开发注入 SENTRY_DSN 等变量，文件不存在时忽略
	_ = godotenv.Load()

	config, err := getConfig()
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}
	configs.SetCurrentConfig(config)

	// 初始化元数据存储（设备 ID、凭证的明文分区等）
	if err := metadata.Init(config.DatabaseDir()); err != nil {
		fmt.Fprintf(os.Stderr, "警告: 元数据存储初始化失败: %v\n", err)
	}
	defer metadata.Close()

	// DSN 来源优先级：配置文件 > 环境变量 SENTRY_DSN
	sentryDSN := config.SentryDSN
	if sentryDSN == "" {
		sentryDSN = os.Getenv("SENTRY_DSN")
	}
	if sentryDSN != "" {
		environment := "production"
		if config.Debug {
			environment = "development"
		}
		if err := bilisentry.Init(sentryDSN, environment, consts.AppVersion); err != nil {
			fmt.Fprintf(os.Stderr, "警告: Sentry 初始化失败: %v\n", err)
		}
	}

	logger := log.New()
	logger.Infof("%s Version: %s Link Start", consts.AppName, consts.AppVersion)
	logger.Debugf("%+v", consts.GetAppInfo())
	logger.Debugf("%+v", configs.GetCurrentConfig())

	store := credentials.NewStore(credentials.NewKeyringBackend(), metadata.GetStore())
	client := api.NewClient(store)

	inst := new(instance.Instance)
	inst.Cache = gcache.New(1024).LRU().Build()
	inst.Client = client

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	ctx := context.WithValue(rootCtx, instance.Key, inst)

	// 先尝试恢复上次的登录
	if err := client.RestoreSession(); err != nil {
		if errors.Is(err, api.ErrAuthenticationRequired) {
			logger.Warn("本地登录凭证已失效，请重新登录")
			snap := client.Snapshot()
			userName := ""
			if snap.Profile != nil {
				userName = snap.Profile.Name
			}
			notify.SendSessionInvalidNotification(ctx, userName)
		} else {
			logger.WithError(err).Warn("恢复登录失败")
		}
	} else if snap := client.Snapshot(); snap.LoggedIn {
		logger.Infof("已恢复登录: %s", snap.Profile.Name)
		// 登录态恢复后预热房间信息和分区列表
		if _, err := client.FetchRoomInfo(); err != nil {
			logger.WithError(err).Warn("获取直播间信息失败")
		}
		if _, err := client.ListPartitions(); err != nil {
			logger.WithError(err).Warn("获取直播分区失败")
		}
	}

	ran, err := runOneShotActions(ctx, client)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if ran && !config.RPC.Enable {
		return
	}
	if !config.RPC.Enable {
		flag.App.Usage(nil)
		return
	}

	// RPC 模式：常驻运行，对外提供状态服务
	if err := servers.NewServer(ctx).Start(ctx); err != nil {
		logger.WithError(err).Fatalf("failed to init server")
	}
	servers.RegisterStateForwarder(ctx, client)
	watchBroadcastState(ctx, client)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	bilisentry.Go(func() {
		<-c
		logger.Info("Received shutdown signal, closing...")
		rootCancel()
		inst.Server.Close(ctx)
	})

	inst.WaitGroup.Wait()
	logger.Info("Bye~")
}
