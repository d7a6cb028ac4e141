package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// 构建时注入：
//
//	go build -ldflags "-X 'github.com/lk2023060901/lendhub/pkg/app.Version=v1.2.0' \
//	  -X 'github.com/lk2023060901/lendhub/pkg/app.GitCommit=$(git rev-parse --short HEAD)'"
//
// 未注入时从 debug.ReadBuildInfo 的模块版本与 vcs 信息补全
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
	AppName   = ""
)

// Info 构建信息
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	info := Info{
		AppName:   AppName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.AppName == "" {
		info.AppName = "lendhub"
		if exe, err := os.Executable(); err == nil {
			info.AppName = filepath.Base(exe)
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	for _, f := range []*string{&info.Version, &info.GitCommit, &info.BuildDate} {
		if *f == "" {
			*f = "unknown"
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, build: %s, %s, %s)",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// UserAgent 访问后端 REST 接口时使用
func (i Info) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", i.AppName, i.Version, i.Platform)
}

// Release Sentry release 标识，形如 lendhub-notify@v1.2.0
func (i Info) Release() string {
	return i.AppName + "@" + i.Version
}
