package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/borgmon/nudge/assets"
	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/audio"
	"github.com/borgmon/nudge/pkg/calendar"
	"github.com/borgmon/nudge/pkg/credential"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/notify"
	"github.com/borgmon/nudge/pkg/parser"
	"github.com/borgmon/nudge/pkg/platform"
	"github.com/borgmon/nudge/pkg/server"
	"github.com/borgmon/nudge/pkg/store"
)

const (
	appID    = "io.github.borgmon.nudge"
	tokenTTL = 30 * 24 * time.Hour
)

type Nudge struct {
	app        fyne.App
	config     *models.AppConfig
	configPath string

	storage  alarm.Storage
	sql      *store.SQLStore
	manager  *alarm.Manager
	phrases  *parser.Parser
	cue      *audio.Cue
	notifier *notify.FyneNotifier
	fetcher  *calendar.Fetcher

	ctx          context.Context
	cancel       context.CancelFunc
	syncTicker   *time.Ticker
	alarmsWindow *AlarmsWindow
	addWindow    fyne.Window
}

func main() {
	flags := pflag.NewFlagSet("nudge", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", models.DefaultConfigPath(), "path to the config file")
	headless := flags.Bool("headless", false, "run without the tray; alarms are logged and the API is served")
	list := flags.BoolP("list", "l", false, "print stored alarms and exit")
	token := flags.Bool("token", false, "print an API token and exit")
	flags.String("storage", "", "storage driver: prefs, sqlite, postgres or memory")
	flags.String("dsn", "", "sqlite path or postgres connection string")
	flags.String("addr", "", "HTTP API listen address")
	flags.Parse(os.Args[1:])

	v := viper.New()
	if err := bindFlags(v, flags); err != nil {
		log.Fatal(err)
	}
	cfg, err := models.LoadConfigWith(v, *configPath)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *token:
		if err := printToken(os.Stdout); err != nil {
			log.Fatal(err)
		}
	case *list:
		if err := listAlarms(cfg); err != nil {
			log.Fatal(err)
		}
	case *headless:
		if err := runHeadless(cfg); err != nil {
			log.Fatal(err)
		}
	default:
		n := &Nudge{
			app:        app.NewWithID(appID),
			config:     cfg,
			configPath: *configPath,
		}
		if err := n.initialize(); err != nil {
			log.Fatal(err)
		}
		n.run()
	}
}

// bindFlags maps command-line flags onto config keys. Flags left unset fall
// through to the file and then the defaults.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"storage.driver": "storage",
		"storage.dsn":    "dsn",
		"server.addr":    "addr",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func (n *Nudge) initialize() error {
	n.app.SetIcon(assets.Icon)
	n.ctx, n.cancel = context.WithCancel(context.Background())

	prefs := store.NewPrefsStore(n.app)
	storage, sqlStore, err := openStorage(n.config.Storage, prefs)
	if err != nil {
		return err
	}
	n.storage, n.sql = storage, sqlStore

	n.phrases = parser.New()
	n.cue = audio.NewCue(assets.AlarmWAV, n.config.Sound)
	n.fetcher = calendar.NewFetcher(nil)

	opts := alarm.Options{
		Key:        n.config.Storage.Key,
		Title:      n.config.Notification.Title,
		Sounder:    n.cue,
		OnDelivery: logDelivery,
	}
	if n.config.Notification.Enabled {
		n.notifier = notify.NewFyneNotifier(n.app, prefs, n.askNotificationPermission)
		opts.Notifier = n.notifier
	}
	n.manager = alarm.NewManager(n.storage, opts)

	n.manager.SetAlarmTriggerCallback(n.showAlert)
	n.manager.Subscribe(func(models.Alarm) {
		fyne.Do(n.refreshViews)
	})

	if err := n.manager.LoadFromStorage(); err != nil {
		log.Printf("[ALARM] Loading saved alarms failed: %v", err)
	}

	n.writeDefaultConfig()
	n.syncAutostart()
	n.setupSystemTray()
	n.startBackgroundSync()
	n.startAPI()

	return nil
}

func (n *Nudge) run() {
	n.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
		if n.notifier != nil {
			go n.notifier.RequestPermission()
		}
		go func() {
			err := platform.ListenShortcut(n.ctx, func() {
				fyne.Do(n.showAddReminderWindow)
			})
			if err != nil {
				log.Printf("[PLATFORM] Shortcut unavailable: %v", err)
			}
		}()
	})
	n.app.Run()
	n.shutdown()
}

// writeDefaultConfig saves the effective config on first run so there is a
// file to edit.
func (n *Nudge) writeDefaultConfig() {
	if _, err := os.Stat(n.configPath); !errors.Is(err, os.ErrNotExist) {
		return
	}
	if err := models.SaveConfig(n.configPath, n.config); err != nil {
		log.Printf("Warning: failed to write config: %v", err)
		return
	}
	log.Printf("Wrote default config to %s", n.configPath)
}

func (n *Nudge) openConfigFile() {
	n.writeDefaultConfig()
	if err := n.app.OpenURL(&url.URL{Scheme: "file", Path: n.configPath}); err != nil {
		log.Printf("Opening %s failed: %v", n.configPath, err)
	}
}

func (n *Nudge) syncAutostart() {
	item, err := platform.LoginItem()
	if err != nil {
		log.Printf("[AUTOSTART] %v", err)
		return
	}
	if err := platform.SyncAutostart(item, n.config.AutoStart); err != nil {
		log.Printf("[AUTOSTART] %v", err)
	}
}

// refreshViews redraws everything that shows alarms. Must run on the UI thread.
func (n *Nudge) refreshViews() {
	n.updateSystemTrayMenu()
	if n.alarmsWindow != nil {
		n.alarmsWindow.Refresh()
	}
}

func (n *Nudge) syncCalendars() {
	if len(n.config.Calendar.Sources) == 0 {
		return
	}
	syncCalendars(n.ctx, n.fetcher, n.config.Calendar, n.manager)
	fyne.Do(n.refreshViews)
}

func (n *Nudge) startBackgroundSync() {
	if len(n.config.Calendar.Sources) == 0 {
		log.Println("[CALENDAR] No iCal sources configured")
		return
	}

	go n.syncCalendars()

	n.syncTicker = time.NewTicker(time.Duration(n.config.Calendar.SyncIntervalMin) * time.Minute)
	go func() {
		for {
			select {
			case <-n.ctx.Done():
				return
			case <-n.syncTicker.C:
				n.syncCalendars()
			}
		}
	}()
}

func (n *Nudge) startAPI() {
	if !n.config.Server.Enabled {
		return
	}
	srv, err := newAPIServer(n.config.Server, n.manager, n.phrases, n.sql)
	if err != nil {
		log.Printf("[API] Not starting: %v", err)
		return
	}
	go func() {
		if err := srv.Run(n.ctx, n.config.Server.Addr); err != nil {
			log.Printf("[API] %v", err)
		}
	}()
}

func (n *Nudge) shutdown() {
	if n.syncTicker != nil {
		n.syncTicker.Stop()
	}
	if n.cancel != nil {
		n.cancel()
	}
	if n.manager != nil {
		n.manager.Shutdown()
	}
	if n.cue != nil {
		n.cue.Stop()
	}
	if n.sql != nil {
		n.sql.Close()
	}
}

func (n *Nudge) quit() {
	n.app.Quit()
}

// runHeadless serves the scheduler and API until SIGINT or SIGTERM.
func runHeadless(cfg *models.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.Driver == models.StorageDriverPrefs {
		log.Printf("[ALARM] Preferences storage needs the desktop app, using sqlite at %s", models.DefaultDataPath())
		cfg.Storage.Driver = models.StorageDriverSQLite
		if cfg.Storage.DSN == "" {
			cfg.Storage.DSN = models.DefaultDataPath()
		}
	}

	storage, sqlStore, err := openStorage(cfg.Storage, nil)
	if err != nil {
		return err
	}
	if sqlStore != nil {
		defer sqlStore.Close()
	}

	cue := audio.NewCue(assets.AlarmWAV, cfg.Sound)
	defer cue.Stop()

	m := alarm.NewManager(storage, alarm.Options{
		Key:        cfg.Storage.Key,
		Title:      cfg.Notification.Title,
		Sounder:    cue,
		Notifier:   notify.LogNotifier{},
		OnDelivery: logDelivery,
	})
	defer m.Shutdown()

	if err := m.LoadFromStorage(); err != nil {
		log.Printf("[ALARM] Loading saved alarms failed: %v", err)
	}
	log.Printf("[ALARM] %d active alarms", len(m.GetActiveAlarms()))

	phrases := parser.New()
	go runCalendarLoop(ctx, calendar.NewFetcher(nil), cfg.Calendar, m)

	srv, err := newAPIServer(cfg.Server, m, phrases, sqlStore)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Server.Addr)
}

func runCalendarLoop(ctx context.Context, f *calendar.Fetcher, cfg models.CalendarConfig, m *alarm.Manager) {
	if len(cfg.Sources) == 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.SyncIntervalMin) * time.Minute)
	defer ticker.Stop()

	for {
		syncCalendars(ctx, f, cfg, m)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func syncCalendars(ctx context.Context, f *calendar.Fetcher, cfg models.CalendarConfig, m *alarm.Manager) {
	res, err := f.Sync(ctx, cfg.Sources, m, cfg.GetLeadMinutes())
	if err != nil {
		log.Printf("[CALENDAR] Sync finished with errors: %v", err)
	}
	log.Printf("[CALENDAR] %d events, %d alarms added, %d already scheduled", res.Events, res.Added, res.Skipped)
}

// newAPIServer builds the HTTP API, loading the token secret from the
// keyring when auth is on.
func newAPIServer(cfg models.ServerConfig, m *alarm.Manager, phrases *parser.Parser, sqlStore *store.SQLStore) (*server.Server, error) {
	opts := server.Options{AllowedOrigins: cfg.AllowedOrigins}
	if sqlStore != nil {
		opts.Todos = sqlStore
	}

	if cfg.Auth {
		secret, err := apiSecret()
		if err != nil {
			return nil, err
		}
		mw := server.NewMiddleware(secret)
		opts.Auth = &mw
	}

	return server.New(m, phrases, opts), nil
}

func apiSecret() ([]byte, error) {
	vault, err := credential.Open()
	if err != nil {
		return nil, err
	}
	return vault.APISecret()
}

func logDelivery(d alarm.Delivery) {
	if d.OK() {
		return
	}
	if d.Sound != nil {
		log.Printf("[AUDIO] Alarm %s: %v", d.AlarmID, d.Sound)
	}
	if d.Notification != nil {
		log.Printf("[NOTIFY] Alarm %s: %v", d.AlarmID, d.Notification)
	}
}
