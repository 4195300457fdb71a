// curlock - cursor lock prank service
// Replaces the system pointer cursor and restores it when the unlock key
// sequence is typed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"curlock/internal/api"
	"curlock/internal/autostart"
	"curlock/internal/config"
	"curlock/internal/cursor"
	"curlock/internal/embedded"
	"curlock/internal/keytrap"
	"curlock/internal/osutils"
	"curlock/internal/protocol"
	"curlock/internal/sequence"
	"curlock/internal/tray"
)

var (
	version    = "0.1.0"
	cursorPath = flag.String("cursor", "", "Path to a .cur/.ani cursor file (default: built-in blank cursor)")
	cursorKind = flag.String("kind", "", "Cursor table slot to override (see -list-kinds)")
	seqFlag    = flag.String("sequence", "", "Unlock key sequence, comma-separated key names (e.g. J,U,S,T)")
	listKinds  = flag.Bool("list-kinds", false, "List overridable cursor kinds")
	doUnlock   = flag.Bool("unlock", false, "Ask a running instance to restore the cursor and exit")
	noTray     = flag.Bool("no-tray", false, "Run without the system tray icon")
	showVer    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("curlock version %s\n", version)
		return
	}

	// Handle -list-kinds flag
	if *listKinds {
		listCursorKinds()
		return
	}

	// Initialize config
	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	// Handle -unlock flag
	if *doUnlock {
		requestUnlock(cfgMgr)
		return
	}

	// Default: lock the cursor and run until unlocked
	runService(cfgMgr)
}

func listCursorKinds() {
	fmt.Println("Overridable cursor kinds:")
	fmt.Println("-------------------------")
	for _, k := range cursor.All() {
		fmt.Printf("  %s\n", k)
	}
}

// requestUnlock asks a running instance over its control API to restore the
// cursor. Useful when the unlock sequence has been forgotten.
func requestUnlock(cfgMgr *config.Manager) {
	cfg := cfgMgr.Get()
	url := fmt.Sprintf("http://127.0.0.1:%d/api/unlock", cfg.General.APIPort)

	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		log.Fatalf("Failed to build unlock request: %v", err)
	}
	if cfg.General.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.General.APIToken)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("No running instance reachable on port %d: %v", cfg.General.APIPort, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unlock request rejected: %s", resp.Status)
	}
	fmt.Println("Unlock requested; cursor restored.")
}

func runService(cfgMgr *config.Manager) {
	log.Println("Curlock service starting...")

	// Apply flag overrides on top of the config
	cfg := cfgMgr.Get()
	if *cursorPath != "" {
		cfg.General.CursorPath = *cursorPath
	}
	if *cursorKind != "" {
		cfg.General.CursorKind = *cursorKind
	}
	if *seqFlag != "" {
		cfg.General.UnlockSequence = strings.Split(*seqFlag, ",")
	}

	kind, err := cursor.KindFromName(cfg.General.CursorKind)
	if err != nil {
		log.Fatalf("Invalid cursor kind %q: %v (try -list-kinds)", cfg.General.CursorKind, err)
	}

	seq, err := keytrap.ParseSequence(cfg.General.UnlockSequence)
	if err != nil {
		log.Fatalf("Invalid unlock sequence: %v", err)
	}
	rec, err := sequence.New(seq)
	if err != nil {
		log.Fatalf("Invalid unlock sequence: %v", err)
	}

	table, err := cursor.NewSystemTable()
	if err != nil {
		log.Fatalf("Cursor table unavailable: %v", err)
	}

	// Everything that can fail is checked before the cursor is touched, so
	// a startup failure never leaves the system in a modified state.
	path := cfg.General.CursorPath
	if path == "" {
		path, err = embedded.BlankCursorPath()
		if err != nil {
			log.Fatalf("Failed to extract built-in cursor: %v", err)
		}
	}

	replacement, err := cursor.LoadFile(table, path)
	if err != nil {
		if errors.Is(err, cursor.ErrNotFound) {
			log.Fatalf("Cursor file not found: %s (nothing was changed)", path)
		}
		log.Fatalf("Failed to load cursor from %s: %v (nothing was changed)", path, err)
	}

	if !osutils.IsAdmin() {
		log.Println("Note: Overriding the system cursor may require administrator privileges")
	}

	autostart.Sync(cfg.General.StartOnBoot)

	var trap keytrap.Capture = keytrap.NewTrap()

	// From this point on every exit path must run the shutdown funnel.
	ov, err := cursor.Install(table, replacement, kind)
	if err != nil {
		log.Fatalf("Failed to install cursor override: %v (nothing was changed)", err)
	}
	log.Printf("Cursor override installed: %s slot now shows %s", kind, replacement.Origin())

	trayActive := cfg.General.TrayEnabled && !*noTray
	done := make(chan struct{})

	// The tray is built before anything that can trigger shutdown, so the
	// funnel never sees a half-initialized tray.
	var t *tray.Tray
	if trayActive {
		t = tray.New("Curlock")
	}

	var apiServer *api.Server
	var shutdownOnce sync.Once

	// shutdown is the single funnel for restoring the cursor and exiting,
	// whatever triggered it. Revert itself is idempotent; the Once keeps
	// the teardown of trap, tray and process from racing.
	shutdown := func(reason string) {
		shutdownOnce.Do(func() {
			log.Printf("Unlocking: %s", reason)

			if err := ov.Revert(); err != nil {
				log.Printf("ERROR: revert failed: %v, restoring default cursor scheme", err)
				if err := table.RestoreDefaults(); err != nil {
					log.Printf("ERROR: restoring defaults also failed: %v", err)
				}
			}

			if apiServer != nil {
				apiServer.BroadcastReverted(reason)
			}
			if err := trap.Stop(); err != nil {
				log.Printf("Warning: stopping key capture: %v", err)
			}

			if trayActive {
				t.Stop()
			} else {
				close(done)
			}
		})
	}
	defer shutdown("main exit")

	// Last chance when the console window is closed or the session ends:
	// the process dies right after the handler returns, so restore inline
	// instead of going through the funnel.
	if err := osutils.OnConsoleClose(func() {
		ov.Revert()
		table.RestoreDefaults()
	}); err != nil {
		log.Printf("Warning: console close handler: %v", err)
	}

	// Start API server if enabled
	if cfg.General.APIEnabled {
		apiServer = api.NewServer(cfgMgr,
			func() protocol.StatusPayload {
				_, length := rec.Progress()
				return protocol.StatusPayload{
					Locked:         !ov.Reverted(),
					Kind:           kind.String(),
					CursorOrigin:   path,
					SequenceLength: length,
				}
			},
			func(origin string) {
				go shutdown("unlock requested via " + origin)
			},
		)
		go func() {
			if err := apiServer.Start(cfg.General.APIPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	// Key capture feeding the recognizer
	if err := trap.Start(); err != nil {
		log.Printf("ERROR: key capture failed to start: %v", err)
		log.Printf("Unlock via tray or 'curlock -unlock' still works.")
	} else {
		go func() {
			for ev := range trap.Events() {
				if !ev.Pressed {
					continue
				}
				name := keytrap.KeyName(ev.VKCode)
				if name == "" {
					continue
				}

				res := rec.Consume(name)
				if apiServer != nil {
					matched, length := rec.Progress()
					apiServer.BroadcastProgress(matched, length)
				}
				if res == sequence.Complete {
					shutdown("unlock sequence matched")
					return
				}
			}
		}()
	}

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		shutdown("signal received")
	}()

	log.Println("Curlock running. Type the unlock sequence to restore the cursor.")

	if trayActive {
		t.AddMenuItem("Restore cursor and quit", func() {
			shutdown("tray menu")
		})
		if cfg.General.ShowSequenceHint {
			t.AddSeparator()
			t.AddMenuItem("Unlock: "+strings.Join(seq, " "), nil)
		}
		t.Run()
	} else {
		<-done
	}
}
