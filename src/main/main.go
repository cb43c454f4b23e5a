package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/spf13/cobra"

	"screen-overlay-llm/src/clipboard"
	"screen-overlay-llm/src/config"
	"screen-overlay-llm/src/controller"
	"screen-overlay-llm/src/gui"
	"screen-overlay-llm/src/host"
	"screen-overlay-llm/src/hotkey"
	"screen-overlay-llm/src/messages"
	"screen-overlay-llm/src/notification"
	"screen-overlay-llm/src/overlay"
	"screen-overlay-llm/src/process"
	"screen-overlay-llm/src/router"
	"screen-overlay-llm/src/runtimeinit"
	"screen-overlay-llm/src/screenshot"
	"screen-overlay-llm/src/singleinstance"
	"screen-overlay-llm/src/tray"
)

const (
	appID = "com.screenoverlayllm.app"

	hostInboxSize       = 64
	controllerInboxSize = 16
	delegateTimeout     = 2 * time.Second
	stopTimeout         = 2 * time.Second
)

type mainOptions struct {
	apiKeyPath string
	dataDir    string
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{APIKeyPathOverride: o.apiKeyPath, DataDirOverride: o.dataDir}
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-overlay-llm"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-overlay-llm",
		Short:         "Floating overlay that asks a vision model about your screen",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runOverlay(*opts); err != nil {
				notification.ShowBlockingError(gui.WindowTitle, err.Error())
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for the settings database and logs")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-api-key-path) to their
// double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"api-key-path", "data-dir"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

// handleSecondLaunch asks a resident overlay to show itself. It reports true
// when the resident took over and this process should exit.
func handleSecondLaunch(ctx context.Context, client singleinstance.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, delegateTimeout)
	defer cancel()

	delegated, err := client.Delegate(ctx, singleinstance.CommandShow)
	if err != nil {
		log.Printf("Delegation error: %v; starting a new overlay", err)
		return false
	}
	if delegated {
		log.Printf("Resident overlay found, asked it to show")
	}
	return delegated
}

func controllerOptions(cfg *config.Config, copyText func(string) error) controller.Options {
	opts := controller.DefaultOptions()
	opts.AutoAnalyze = cfg.AutoAnalyze
	opts.ShowPreview = cfg.ShowPreview
	opts.KeepInputEnabled = cfg.KeepInputEnabled
	opts.Emoji = cfg.Emoji
	opts.Clipboard = copyText
	return opts
}

func runOverlay(opts mainOptions) error {
	enableDPIAwareness()

	// .env first so SINGLEINSTANCE_PORT_* apply to the delegation scan.
	if _, err := config.LoadWithOptions(opts.loadOptions()); err != nil {
		return err
	}
	if handleSecondLaunch(context.Background(), singleinstance.NewClient()) {
		return nil
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:   opts.loadOptions(),
		OpenStore:     true,
		InitClipboard: true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config
	logMonitorConfiguration()

	a := app.NewWithID(appID)
	a.Settings().SetTheme(theme.DarkTheme())
	win := gui.NewWindow(a)
	ui := gui.New(win, tray.Icon())

	capt := screenshot.New()
	native := overlay.NewNativeWindow(win)

	r := router.NewRouter()
	defer r.Shutdown()
	r.SetQuiet(messages.TypeDragIcon, messages.TypeSetIgnoreMouseEvents)
	hostInbox, err := r.RegisterProcess(messages.ProcessHost, hostInboxSize)
	if err != nil {
		return err
	}
	ctrlInbox, err := r.RegisterProcess(messages.ProcessController, controllerInboxSize)
	if err != nil {
		return err
	}
	toController := r.Endpoint(messages.ProcessHost, messages.ProcessController)

	h := host.New(host.Options{
		Window:   native,
		Display:  overlay.ScreenDisplay{Primary: capt.PrimaryBounds},
		Store:    rt.Store,
		Capturer: capt,
		AI:       rt.LLM,
		Notify: func(m messages.Message) {
			if err := toController.Send(m); err != nil {
				log.Printf("Host: notify %s failed: %v", m.Type(), err)
			}
		},
	})

	ctrl := controller.New(r.Endpoint(messages.ProcessController, messages.ProcessHost), ui, controllerOptions(cfg, clipboard.Write))
	ui.Bind(ctrl)

	listener := hotkey.NewListener()
	if err := listener.Bind(cfg.RescueHotkey, h.Rescue); err != nil {
		log.Printf("Rescue hotkey %q not registered: %v", cfg.RescueHotkey, err)
	} else {
		log.Printf("Rescue hotkey: %s", cfg.RescueHotkey)
	}
	listener.OnPointer(gui.NewPointerForwarder(ctrl, h).Handle)
	listener.Start()

	if err := tray.New(a, h.Rescue, h.Quit).Setup(gui.WindowTitle); err != nil {
		log.Printf("Tray unavailable: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		log.Printf("Single-instance server not started: %v", err)
	} else {
		go singleinstance.Serve(ctx, srv, h.Rescue)
	}

	// Hooks run most recent first, so the app quits last.
	h.OnQuit(func() { fyne.Do(a.Quit) })
	h.OnQuit(cancel)
	h.OnQuit(func() { _ = srv.Close() })
	h.OnQuit(listener.Stop)

	procs := process.NewManager(ctx)
	defer procs.StopAll(stopTimeout)
	procs.OnCrash(func(name string, err error) { h.Quit() })
	if err := procs.Go(messages.ProcessHost, func(ctx context.Context) { h.Run(ctx, hostInbox) }); err != nil {
		return err
	}
	if err := procs.Go(messages.ProcessController, func(ctx context.Context) { ctrl.Run(ctx, ctrlInbox) }); err != nil {
		return err
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-ch:
			log.Printf("Received %v, quitting", sig)
			h.Quit()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()

	if err := h.Start(); err != nil {
		h.Quit()
		return err
	}
	log.Printf("Screen Overlay LLM started (vision=%s, text=%s)", cfg.VisionModel, cfg.TextModel)

	a.Run()
	h.Quit()
	return nil
}
