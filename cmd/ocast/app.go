package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/ocast/internal/ui"
	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/dial"
	"github.com/muurk/ocast/pkg/message"
)

var errNoApplication = errors.New("no application name, use --app or set application.name in the config")

func init() {
	rootCmd.AddCommand(appCmd)
	appCmd.AddCommand(appInfoCmd)
	appCmd.AddCommand(appStartCmd)
	appCmd.AddCommand(appStopCmd)
	rootCmd.AddCommand(sendCmd)
}

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage the receiver web application",
	Long: `Query, start and stop the receiver web application through DIAL.

The application name comes from --app or application.name in the config.`,
}

var appInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the DIAL state of the application",
	Example: `  ocast app info --device living-room --app Orange-DefaultReceiver-DEV`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(nil)
		p.PrintHeader("Application Info", "ocast app info", targetParams())

		name := applicationName()
		if name == "" {
			return fail(p, "Application info failed", errNoApplication)
		}

		d, err := resolveDevice(cmd.Context(), p)
		if err != nil {
			return fail(p, "Receiver not found", err)
		}
		if d.ApplicationURL == "" {
			return fail(p, "Application info failed", fmt.Errorf("%s does not announce a DIAL application URL", d.FriendlyName))
		}

		info, err := dial.NewClient(d.ApplicationURL).Info(cmd.Context(), name)
		if err != nil {
			return fail(p, "Application info failed", err)
		}

		details := map[string]string{
			"Receiver": d.FriendlyName,
			"Name":     info.Name,
			"State":    string(info.State),
		}
		if info.WebSocketURL != "" {
			details["WebSocket"] = info.WebSocketURL
		}
		if info.Version != "" {
			details["Version"] = info.Version
		}
		if info.RunLink != "" {
			details["Run link"] = info.RunLink
		}
		p.PrintSuccess("Application "+name, details)
		return nil
	},
}

var appStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the application and wait until it is connected",
	Long: `Start the receiver web application through DIAL, then wait for the
application to announce itself on the OCast WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(nil)
		p.PrintHeader("Application Start", "ocast app start", targetParams())

		if applicationName() == "" {
			return fail(p, "Start failed", errNoApplication)
		}

		client, release, err := connect(cmd.Context(), p)
		if err != nil {
			return fail(p, "Connection failed", err)
		}
		defer release()

		if err := client.StartApplication(cmd.Context()); err != nil {
			return fail(p, "Start failed", err)
		}
		p.PrintSuccess("Application started", map[string]string{
			"Receiver":    client.Device().FriendlyName,
			"Application": client.ApplicationName(),
		})
		return nil
	},
}

var appStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the application",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(nil)
		p.PrintHeader("Application Stop", "ocast app stop", targetParams())

		if applicationName() == "" {
			return fail(p, "Stop failed", errNoApplication)
		}

		d, err := resolveDevice(cmd.Context(), p)
		if err != nil {
			return fail(p, "Receiver not found", err)
		}

		client := device.New(d, device.WithApplicationName(applicationName()))
		if err := client.StopApplication(cmd.Context()); err != nil {
			return fail(p, "Stop failed", err)
		}
		p.PrintSuccess("Application stopped", map[string]string{
			"Receiver":    d.FriendlyName,
			"Application": client.ApplicationName(),
		})
		return nil
	},
}

// Raw command flags
var (
	sendDomain  string
	sendService string
	sendName    string
	sendParams  string
	sendResult  bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a raw OCast command",
	Long: `Send a command to the receiver and wait for its reply.

Commands to the browser domain start the application first when needed.
With --result the reply params are printed as JSON.`,
	Example: `  # Ask the player for its status
  ocast send --service org.ocast.media --name getPlaybackStatus --result

  # Press a key on the receiver
  ocast send --domain settings --service org.ocast.settings.input \
    --name keyPressed --params '{"key":"Enter","code":"Enter"}'`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendDomain, "domain", string(message.DomainBrowser), "Destination domain (browser or settings)")
	sendCmd.Flags().StringVar(&sendService, "service", "", "Service name (required)")
	sendCmd.Flags().StringVar(&sendName, "name", "", "Command name (required)")
	sendCmd.Flags().StringVar(&sendParams, "params", "{}", "Command params as a JSON object")
	sendCmd.Flags().BoolVar(&sendResult, "result", false, "Print the reply params")
	_ = sendCmd.MarkFlagRequired("service")
	_ = sendCmd.MarkFlagRequired("name")
}

func parseDomain(s string) (message.Domain, error) {
	switch d := message.Domain(s); d {
	case message.DomainBrowser, message.DomainSettings:
		return d, nil
	default:
		return "", fmt.Errorf("unknown domain %q (use browser or settings)", s)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(nil)
	params := targetParams()
	params["Command"] = sendService + "/" + sendName
	p.PrintHeader("Send", "ocast send", params)

	domain, err := parseDomain(sendDomain)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(sendParams)) {
		return fmt.Errorf("--params is not valid JSON")
	}

	var opts []device.Option
	if domain == message.DomainSettings {
		opts = append(opts, device.WithApplicationName(""))
	}
	client, release, err := connect(cmd.Context(), p, opts...)
	if err != nil {
		return fail(p, "Connection failed", err)
	}
	defer release()

	command := message.Command[any](sendService, sendName, json.RawMessage(sendParams))
	if !sendResult {
		if err := client.Send(cmd.Context(), domain, command); err != nil {
			return fail(p, "Command failed", err)
		}
		p.PrintSuccess("Command sent", map[string]string{"Command": sendName})
		return nil
	}

	var result json.RawMessage
	if err := client.SendWithResult(cmd.Context(), domain, command, &result); err != nil {
		return fail(p, "Command failed", err)
	}
	p.Println(string(result))
	return nil
}
