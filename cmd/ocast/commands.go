package main

import (
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/ocast/internal/ui"
	"github.com/muurk/ocast/pkg/discovery"
)

var (
	searchTargets []string
	noSave        bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(receiversCmd)
	receiversCmd.AddCommand(receiversNameCmd)
}

// scanCmd runs one discovery session and lists the receivers
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for OCast receivers on the network",
	Long: `Scan for OCast receivers using SSDP.

Sends M-SEARCH probes on the local network, fetches the UPnP descriptor of
every receiver that answers and lists them. Found receivers are remembered
in the configuration file so other commands can refer to them with --device.`,
	Example: `  # Scan with the configured timeout (5s by default)
  ocast scan

  # Longer scan for slow networks
  ocast scan --timeout 15s

  # Probe another search target
  ocast scan --target urn:dial-multiscreen-org:service:dial:1`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&searchTargets, "target", nil, "SSDP search target (repeatable)")
	scanCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not remember found receivers")
}

func runScan(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(nil)
	p.PrintHeader("Scan", "ocast scan", map[string]string{"Timeout": scanTimeout().String()})

	scanner := newScanner()
	if len(searchTargets) > 0 {
		scanner.Options.SearchTargets = searchTargets
	}

	devices, err := scanner.Scan(cmd.Context())
	if err != nil {
		return fail(p, "Scan failed", err)
	}

	if len(devices) == 0 {
		p.PrintError("No receiver found", nil, `Troubleshooting:
  • Ensure the receiver is powered on and on the same network
  • Multicast traffic (239.255.255.250:1900) must not be filtered
  • Try increasing --timeout for slower networks`)
		return nil
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].FriendlyName < devices[j].FriendlyName })
	for _, d := range devices {
		p.PrintDevice(ui.SuccessMarker, d)
	}

	if noSave {
		return nil
	}
	for _, d := range devices {
		cfg.RememberReceiver(d)
	}
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to remember receivers: %w", err)
	}
	return nil
}

// watchCmd shows receivers live as they come and go
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch receivers appear and disappear",
	Long: `Run continuous discovery and show receivers as they come and go.

Receivers that stop answering are removed after the next search round.
Press p to pause or resume discovery, r to rescan and q to quit.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Search interval (default from config, minimum 5s)")
}

var watchInterval time.Duration

func runWatch(cmd *cobra.Command, args []string) error {
	events, observer := ui.NewWatchFeed(16)

	opts := cfg.DiscoveryOptions()
	opts.Observer = observer
	if watchInterval > 0 {
		opts.Interval = watchInterval
	}
	engine := discovery.New(opts)

	if _, err := engine.Resume(); err != nil {
		engine.Close()
		return fmt.Errorf("failed to start discovery: %w", err)
	}

	_, err := tea.NewProgram(ui.NewWatchModel(engine, events)).Run()

	// Keep the observer from blocking while the engine shuts down
	go func() {
		for range events {
		}
	}()
	engine.Close()
	close(events)

	if err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

// receiversCmd lists remembered receivers
var receiversCmd = &cobra.Command{
	Use:   "receivers",
	Short: "List remembered receivers",
	Long: `List the receivers remembered by previous scans.

Any of the listed ids, nicknames or friendly names can be passed to --device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(nil)
		if len(cfg.Receivers) == 0 {
			p.Println("No receiver remembered yet. Run 'ocast scan' first.")
			return nil
		}

		ids := make([]string, 0, len(cfg.Receivers))
		for id := range cfg.Receivers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			r := cfg.Receivers[id]
			name := r.FriendlyName
			if r.Nickname != "" {
				name = fmt.Sprintf("%s (%s)", r.Nickname, r.FriendlyName)
			}
			p.Println(fmt.Sprintf("• %s  %s  %s", ui.ReceiverNameStyle.Render(name), id, r.Manufacturer))
			p.Println(ui.ReceiverDetailStyle.Render("    last seen " + r.LastSeen.Format(time.DateTime) + "  " + r.Location))
		}
		return nil
	},
}

var receiversNameCmd = &cobra.Command{
	Use:     "name <id> <nickname>",
	Short:   "Give a remembered receiver a nickname",
	Example: `  ocast receivers name b042f955-9ae7-44a8-ba6c-0009743932f7 living-room`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _, ok := cfg.FindReceiver(args[0])
		if !ok || !cfg.SetNickname(id, args[1]) {
			return fmt.Errorf("unknown receiver %q, run 'ocast scan' first", args[0])
		}
		return cfg.Save(configPath)
	},
}
