package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/ocast/internal/ui"
	"github.com/muurk/ocast/pkg/device"
	"github.com/muurk/ocast/pkg/media"
	"github.com/muurk/ocast/pkg/settings"
)

// Media flags
var (
	mediaTitle    string
	mediaType     string
	mediaLive     bool
	mediaPosition float64
)

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaPlayCmd)
	mediaCmd.AddCommand(mediaControlCmd("pause", "Pause playback", (*media.Controller).Pause))
	mediaCmd.AddCommand(mediaControlCmd("resume", "Resume playback", (*media.Controller).Resume))
	mediaCmd.AddCommand(mediaControlCmd("stop", "Stop playback", (*media.Controller).Stop))
	mediaCmd.AddCommand(mediaVolumeCmd)
	mediaCmd.AddCommand(mediaSeekCmd)
	mediaCmd.AddCommand(mediaStatusCmd)

	mediaPlayCmd.Flags().StringVar(&mediaTitle, "title", "", "Title shown by the receiver")
	mediaPlayCmd.Flags().StringVar(&mediaType, "type", string(media.TypeVideo), "Media type (audio, image, video)")
	mediaPlayCmd.Flags().BoolVar(&mediaLive, "live", false, "The media is a live stream")
	mediaPlayCmd.Flags().Float64Var(&mediaPosition, "position", 0, "Start position in seconds")

	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsDeviceIDCmd)
	settingsCmd.AddCommand(settingsUpdateCmd)
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Control media playback on the receiver",
	Long: `Send media commands to the receiver web application.

The application is started on demand when it is not running yet.`,
}

// withMedia connects to the receiver and runs fn with a media controller
func withMedia(cmd *cobra.Command, title string, fn func(context.Context, *media.Controller) (map[string]string, error)) error {
	p := ui.NewPrinter(nil)
	p.PrintHeader(title, cmd.CommandPath(), targetParams())

	if applicationName() == "" {
		return fail(p, title+" failed", errNoApplication)
	}

	client, release, err := connect(cmd.Context(), p)
	if err != nil {
		return fail(p, "Connection failed", err)
	}
	defer release()

	details, err := fn(cmd.Context(), media.NewController(client))
	if err != nil {
		return fail(p, title+" failed", err)
	}
	p.PrintSuccess(title, details)
	return nil
}

var mediaPlayCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Load a media and start playback",
	Example: `  ocast media play https://example.com/movie.mp4 --title "Big Buck Bunny"
  ocast media play https://example.com/radio.mp3 --type audio --live`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := prepareParams(args[0])
		if err != nil {
			return err
		}
		return withMedia(cmd, "Play", func(ctx context.Context, c *media.Controller) (map[string]string, error) {
			if err := c.Prepare(ctx, params, nil); err != nil {
				return nil, err
			}
			if mediaPosition > 0 {
				if err := c.Play(ctx, mediaPosition); err != nil {
					return nil, err
				}
			}
			return map[string]string{"URL": params.URL, "Type": string(params.MediaType)}, nil
		})
	},
}

func prepareParams(url string) (media.PrepareParams, error) {
	t := media.Type(mediaType)
	switch t {
	case media.TypeAudio, media.TypeImage, media.TypeVideo:
	default:
		return media.PrepareParams{}, fmt.Errorf("unknown media type %q", mediaType)
	}

	mode := media.TransferBuffered
	if mediaLive {
		mode = media.TransferStreamed
	}
	return media.PrepareParams{
		URL:          url,
		Frequency:    1,
		Title:        mediaTitle,
		MediaType:    t,
		TransferMode: mode,
		Autoplay:     mediaPosition <= 0,
	}, nil
}

func mediaControlCmd(name, short string, fn func(*media.Controller, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMedia(cmd, short, func(ctx context.Context, c *media.Controller) (map[string]string, error) {
				return nil, fn(c, ctx)
			})
		},
	}
}

var mediaVolumeCmd = &cobra.Command{
	Use:   "volume <0-100>",
	Short: "Set the volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil || level < 0 || level > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		return withMedia(cmd, "Volume", func(ctx context.Context, c *media.Controller) (map[string]string, error) {
			return map[string]string{"Volume": args[0] + "%"}, c.SetVolume(ctx, float64(level)/100)
		})
	},
}

var mediaSeekCmd = &cobra.Command{
	Use:   "seek <seconds>",
	Short: "Move playback to a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.ParseFloat(args[0], 64)
		if err != nil || position < 0 {
			return fmt.Errorf("invalid position %q", args[0])
		}
		return withMedia(cmd, "Seek", func(ctx context.Context, c *media.Controller) (map[string]string, error) {
			return map[string]string{"Position": args[0] + "s"}, c.Seek(ctx, position)
		})
	},
}

var mediaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the player status and metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMedia(cmd, "Playback Status", func(ctx context.Context, c *media.Controller) (map[string]string, error) {
			st, err := c.PlaybackStatus(ctx)
			if err != nil {
				return nil, err
			}
			details := map[string]string{
				"State":    st.State.String(),
				"Position": fmt.Sprintf("%.0fs / %.0fs", st.Position, st.Duration),
				"Volume":   fmt.Sprintf("%.0f%%", st.Volume*100),
				"Muted":    strconv.FormatBool(st.Mute),
			}
			if st.State == media.StateIdle {
				return details, nil
			}

			md, err := c.Metadata(ctx)
			if err != nil {
				return nil, err
			}
			details["Title"] = md.Title
			details["Tracks"] = fmt.Sprintf("%d audio, %d subtitle, %d video", len(md.AudioTracks), len(md.SubtitleTracks), len(md.VideoTracks))
			return details, nil
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Query the receiver settings service",
	Long: `Query the receiver itself over the settings WebSocket (port 4433).

No web application is involved.`,
}

// withSettings connects to the settings endpoint and runs fn
func withSettings(cmd *cobra.Command, title string, fn func(context.Context, *settings.Controller) (map[string]string, error)) error {
	p := ui.NewPrinter(nil)
	p.PrintHeader(title, cmd.CommandPath(), targetParams())

	client, release, err := connect(cmd.Context(), p, device.WithApplicationName(""))
	if err != nil {
		return fail(p, "Connection failed", err)
	}
	defer release()

	details, err := fn(cmd.Context(), settings.NewController(client))
	if err != nil {
		return fail(p, title+" failed", err)
	}
	p.PrintSuccess(title, details)
	return nil
}

var settingsDeviceIDCmd = &cobra.Command{
	Use:   "device-id",
	Short: "Show the receiver's own identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, "Device ID", func(ctx context.Context, c *settings.Controller) (map[string]string, error) {
			id, err := c.DeviceID(ctx)
			return map[string]string{"ID": id}, err
		})
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update-status",
	Short: "Show the firmware update status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, "Update Status", func(ctx context.Context, c *settings.Controller) (map[string]string, error) {
			st, err := c.UpdateStatus(ctx)
			if err != nil {
				return nil, err
			}
			details := map[string]string{
				"State":    string(st.State),
				"Progress": fmt.Sprintf("%d%%", st.Progress),
			}
			if st.Version != "" {
				details["Version"] = st.Version
			}
			return details, nil
		})
	},
}
