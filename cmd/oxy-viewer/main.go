package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
)

// GLFW and the surface it creates must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to a .toml or .yaml config file")
	noWatch := flag.Bool("no-watch", false, "do not reload the config file when it changes")
	flag.Parse()

	if err := run(*configPath, !*noWatch); err != nil {
		common.LogError("viewer failed", "err", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred releases complete before main exits.
func run(configPath string, watch bool) error {
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if err := common.SetLogLevel(cfg.Log.Level); err != nil {
		return err
	}
	if !found {
		common.LogInfo("config file not found, using defaults", "path", configPath)
	}

	var options []viewer.ViewerBuilderOption
	if watch && found {
		w, err := config.NewWatcher(configPath)
		if err != nil {
			common.LogWarn("config hot reload disabled", "path", configPath, "err", err)
		} else {
			defer common.CloseLogged(w, "config watcher")
			options = append(options, viewer.WithConfigSource(w))
			common.LogDebug("watching config", "path", w.Path())
		}
	}

	v, err := viewer.NewViewer(cfg, options...)
	if err != nil {
		return err
	}
	defer common.CloseLogged(v, "viewer")

	return v.Run()
}
