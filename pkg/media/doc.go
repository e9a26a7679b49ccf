// Package media controls playback in the receiver web application through
// the org.ocast.media service.
//
//	ctl := media.NewController(client)
//	err := ctl.Prepare(ctx, media.PrepareParams{
//	    URL:          "https://example.com/movie.mp4",
//	    Frequency:    1,
//	    MediaType:    media.TypeVideo,
//	    TransferMode: media.TransferBuffered,
//	    Autoplay:     true,
//	}, nil)
//
// Receiver reply codes come back as media.Error values.
package media
