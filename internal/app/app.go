// Package app wires the transport, state core, binding resolver and
// status server together and runs the dispatch loop.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/rrwm/riverbsp/internal/binds"
	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/ipc"
	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/transport"
	"github.com/rrwm/riverbsp/internal/wm"
)

// App owns the daemon's moving parts. All window-manager state is
// mutated exclusively on the goroutine running Run; other goroutines
// only feed its channels.
type App struct {
	conn     transport.Conn
	cfg      *config.Config
	state    *wm.State
	resolver *binds.Resolver
	server   *ipc.Server
}

// New assembles the daemon on an established transport connection.
func New(conn transport.Conn, cfg *config.Config) *App {
	return &App{conn: conn, cfg: cfg}
}

// Run drives the dispatch loop until the context is cancelled or the
// compositor connection is lost. A lost connection is returned as an
// error so the process can exit non-zero.
func (a *App) Run(ctx context.Context) error {
	a.state = wm.NewState(a.conn, a.cfg)
	a.state.SetReloadHandler(a.reload)

	if server, err := ipc.Listen(ipc.SocketPath()); err != nil {
		logger.Warn("status socket unavailable, waybar integration disabled", "error", err)
	} else {
		a.server = server
		a.state.SetNotifier(server)
		defer server.Close()
	}

	a.applyKeyboard()
	a.resolver = binds.Build(a.cfg)
	a.grabKeys()

	// Nil channels from a missing watcher just never fire.
	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if watcher := a.watchConfig(); watcher != nil {
		defer watcher.Close()
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	logger.Info("dispatch loop running")
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-a.conn.Events():
			if !ok {
				return fmt.Errorf("compositor connection closed")
			}
			if err := a.dispatch(ev); err != nil {
				return err
			}

		case ev := <-watchEvents:
			if a.isConfigWrite(ev) {
				logger.Info("configuration file changed, reloading")
				if err := a.reload(); err != nil {
					logger.Error("reload failed, keeping previous configuration", "error", err)
				}
			}

		case err := <-watchErrors:
			logger.Warn("config watcher error", "error", err)
		}
	}
}

// dispatch handles one compositor event. Only ConnectionLost ends the
// loop; everything else is absorbed by the state core.
func (a *App) dispatch(ev transport.Event) error {
	switch e := ev.(type) {
	case transport.OutputAdded:
		a.state.HandleOutputAdded(e)
	case transport.OutputRemoved:
		a.state.HandleOutputRemoved(e)
	case transport.OutputResized:
		a.state.HandleOutputResized(e)
	case transport.OutputRescaled:
		a.state.HandleOutputRescaled(e)
	case transport.ViewMapped:
		a.state.HandleViewMapped(e)
	case transport.ViewUnmapped:
		a.state.HandleViewUnmapped(e)
	case transport.FocusChanged:
		a.state.HandleFocusChanged(e)
	case transport.KeyPressed:
		if actions, ok := a.resolver.Lookup(e.Mods, e.Keysym); ok {
			a.state.Execute(actions)
		} else {
			logger.Debug("unbound key event", "keysym", e.Keysym, "mods", e.Mods)
		}
	case transport.ConnectionLost:
		return fmt.Errorf("compositor connection lost: %w", e.Err)
	default:
		logger.Warn("unhandled event type", "event", fmt.Sprintf("%T", ev))
	}
	return nil
}

// reload re-reads the config file, then swaps configuration, bindings
// and keyboard settings in one step. Runs on the dispatch goroutine.
func (a *App) reload() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.state.SetConfig(cfg)
	a.applyKeyboard()
	a.resolver = binds.Build(cfg)
	a.grabKeys()
	logger.Info("configuration reloaded")
	return nil
}

func (a *App) applyKeyboard() {
	kb := a.cfg.Input.Keyboard
	if err := a.conn.SetKeyboardLayout(kb.Layout, kb.Variant, kb.Options, kb.Model); err != nil {
		logger.Warn("keyboard layout not applied", "error", err)
	}
}

func (a *App) grabKeys() {
	for _, b := range a.resolver.Bindings() {
		if err := a.conn.GrabKey(b.Keysym, uint32(b.Mods)); err != nil {
			logger.Warn("key grab failed", "combo", b.Combo, "error", err)
		}
	}
}

// watchConfig watches the config file's directory, so editors that
// replace the file atomically still trigger a reload.
func (a *App) watchConfig() *fsnotify.Watcher {
	path := config.ConfigFilePath()
	if path == "" {
		logger.Debug("no config file on disk, live reload disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
		watcher.Close()
		return nil
	}
	return watcher
}

func (a *App) isConfigWrite(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(ev.Name) == filepath.Clean(config.ConfigFilePath())
}
