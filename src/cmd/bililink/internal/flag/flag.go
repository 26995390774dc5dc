package flag

import (
	"os"

	"github.com/alecthomas/kingpin"

	"github.com/bililink-go/bililink-go/src/configs"
	"github.com/bililink-go/bililink-go/src/consts"
)

var (
	App = kingpin.New(consts.AppName, "A Bilibili live streaming assistant.").Version(consts.AppVersion)

	Debug       = App.Flag("debug", "Enable debug mode.").Default("false").Bool()
	Conf        = App.Flag("config", "Path to the config file (yml).").Short('c').String()
	AppDataPath = App.Flag("app-data-path", "Path to the application data directory.").Default(".appdata").String()
	RPC         = App.Flag("enable-rpc", "Enable the status RPC server.").Default("false").Bool()
	RPCBind     = App.Flag("rpc-bind", "RPC server bind address.").Short('b').Default("127.0.0.1:8175").String()

	// 一次性动作，执行后退出
	Login    = App.Flag("login", "Log in by scanning a QR code in the terminal.").Bool()
	Logout   = App.Flag("logout", "Log out and remove saved credentials.").Bool()
	Start    = App.Flag("start", "Start broadcasting with the given title.").String()
	AreaID   = App.Flag("area", "Partition (area) id used with --start.").Int64()
	Stop     = App.Flag("stop", "Stop the current broadcast.").Bool()
	Danmaku  = App.Flag("danmaku", "Send a chat message to your own room.").String()
	NewTitle = App.Flag("title", "Update the room title.").String()
)

func init() {
	App.HelpFlag.Short('h')
	kingpin.MustParse(App.Parse(os.Args[1:]))
}

// GenConfigFromFlags 没有配置文件时用命令行参数拼一份配置
func GenConfigFromFlags() *configs.Config {
	config := configs.NewConfig()
	config.Debug = *Debug
	config.AppDataPath = *AppDataPath
	config.RPC.Enable = *RPC
	config.RPC.Bind = *RPCBind
	return config
}
